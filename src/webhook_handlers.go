package main

import (
	"crypto/subtle"
	"net/http"

	"travleap/src/config"
	"travleap/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// paymentWebhookRoute accepts settlement notifications from the payment
// gateway. Authenticated by a shared secret, not a user token.
func paymentWebhookRoute(r *gin.Engine) {
	r.POST("/webhook/payments", func(ctx *gin.Context) {
		secret := config.WebhookSecret()
		given := ctx.GetHeader("X-Webhook-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			ctx.Status(http.StatusUnauthorized)
			return
		}
		var body struct {
			OrderID string `json:"order_id" binding:"required"`
		}
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orderId, err := uuid.Parse(body.OrderID)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := utils.ConfirmOrder(ctx.Request.Context(), orderId); err != nil {
			if status, ok := confirmOrderStatus(err); ok {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		ctx.Status(http.StatusNoContent)
	})
}
