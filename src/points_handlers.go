package main

import (
	"net/http"

	"travleap/src/db"
	"travleap/src/models"
	"travleap/src/types"
	"travleap/src/utils"

	"github.com/gin-gonic/gin"
)

func pointsHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users/:id/points", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			if params.ID != userId && role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			total, err := utils.GetUserBalance(params.ID)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var history []models.PointLedgerEntry
			db := db.GetDb()
			if err := db.
				Where("user_id = ?", params.ID).
				Order("created_at desc").
				Limit(100).
				Find(&history).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"user_id":      params.ID,
				"total_points": total,
				"history":      history,
			}})
		}).
		POST("/users/:id/points/reconcile", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			role := ctx.GetString("role")
			if role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			total, err := utils.ReconcileUserBalance(params.ID)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"user_id": params.ID, "total_points": total}})
		})
	return g
}
