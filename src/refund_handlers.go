package main

import (
	"errors"
	"fmt"
	"net/http"

	"travleap/src/db"
	"travleap/src/types"
	"travleap/src/utils"

	"github.com/gin-gonic/gin"
)

func refundHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/refunds", func(ctx *gin.Context) {
			var body types.RefundRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			orders := utils.OrdersIn(db.GetDb())
			orderId, err := orders.Resolve(body.Ref)
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			owner, err := orders.Owner(orderId)
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if owner != userId && role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			initiator := fmt.Sprintf("user:%d", userId)
			if role == "admin" {
				initiator = fmt.Sprintf("admin:%d", userId)
			}
			result, err := utils.RefundOrder(ctx.Request.Context(), body.Ref, body.Reason, initiator)
			if err != nil {
				if errors.Is(err, types.ErrOrderNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		})
	return g
}
