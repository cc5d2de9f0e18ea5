package main

import (
	"errors"
	"net/http"

	"travleap/src/types"
	"travleap/src/utils"

	"github.com/gin-gonic/gin"
)

func holdHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/holds", func(ctx *gin.Context) {
			var body types.CreateHoldRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			booking, err := utils.CreateHold(&body, userId)
			if err != nil {
				if errors.Is(err, types.ErrCapacityExceeded) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/holds/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, err := utils.EnsureHoldCurrent(params.ID)
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			if booking.UserID != userId && role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		})
	return g
}
