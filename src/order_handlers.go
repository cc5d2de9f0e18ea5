package main

import (
	"errors"
	"net/http"

	"travleap/src/db"
	"travleap/src/types"
	"travleap/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func confirmOrderStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, types.ErrGatewayMismatch):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, types.ErrHoldExpired):
		return http.StatusGone, true
	case errors.Is(err, types.ErrOrderNotFound):
		return http.StatusNotFound, true
	}
	return 0, false
}

func orderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/checkout", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			orderId, payments, err := utils.CreateOrder(userId, &body)
			if err != nil {
				if errors.Is(err, types.ErrHoldExpired) {
					ctx.JSON(http.StatusGone, gin.H{"error": err.Error()})
					return
				}
				if errors.Is(err, types.ErrInsufficientPoints) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{"order_id": orderId, "payments": payments}})
		}).
		GET("/orders/:id", func(ctx *gin.Context) {
			orderId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			payments, err := utils.OrdersIn(db.GetDb()).Payments(orderId)
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			if payments[0].UserID != userId && role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		POST("/orders/:id/confirm", func(ctx *gin.Context) {
			orderId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			owner, err := utils.OrdersIn(db.GetDb()).Owner(orderId)
			if err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if owner != userId && role != "admin" {
				ctx.Status(http.StatusForbidden)
				return
			}
			result, err := utils.ConfirmOrder(ctx.Request.Context(), orderId)
			if err != nil {
				if status, ok := confirmOrderStatus(err); ok {
					ctx.JSON(status, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		})
	return g
}
