package common

import (
	"encoding/json"
	"log"

	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/models"
	"travleap/src/types"
	"travleap/src/utils"

	awslib "travleap/src/lib/aws"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

func markJobDone(payloadId string) {
	if payloadId == "" {
		return
	}
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Where(&models.JobTask{PayloadID: payloadId}).Updates(&models.JobTask{Status: "done"}).Error
	})
	if err != nil {
		log.Printf("Error updating job status: %s\n", err.Error())
	}
}

// KafkaHoldsToExpireConsumer handles the scheduled expiry message for a hold.
// ExpireHold is idempotent so a message replay or a hold already released by
// the sweeper is harmless.
func KafkaHoldsToExpireConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[HoldsToExpire]: Received invalid json body. Aborting")
		return
	}
	val := gjson.Get(spayload, "id")
	payloadId := gjson.Get(spayload, "payloadId").String()
	bookingId := uint(val.Int())
	log.Printf("[HoldsToExpire] bookingId: %d\n", bookingId)
	if err := utils.ExpireHold(bookingId); err != nil {
		log.Printf("Error expiring hold for Booking [%d]: %s\n", bookingId, err.Error())
	}
	go markJobDone(payloadId)
}

// KafkaPointBalanceSyncConsumer repairs balance-store drift from the ledger.
func KafkaPointBalanceSyncConsumer(spayload string) {
	if !gjson.Valid(spayload) {
		log.Println("[PointBalanceSync]: Received invalid json body. Aborting")
		return
	}
	userId := uint(gjson.Get(spayload, "userId").Int())
	reason := gjson.Get(spayload, "reason").String()
	log.Printf("[PointBalanceSync] userId: %d reason: %s\n", userId, reason)
	if _, err := utils.ReconcileUserBalance(userId); err != nil {
		log.Printf("Error reconciling balance for User [%d]: %s\n", userId, err.Error())
	}
}

// HoldsToExpireConsumer is the SQS flavor. EventBridge publishes through SNS
// so the payload arrives wrapped in a notification envelope.
func HoldsToExpireConsumer() {
	qname := lib.WithSuffix("HoldsToExpire")
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		var payload types.JSONB
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			log.Printf("Error deserializing JSON: %s\n", err.Error())
			return
		}
		message, ok := payload["Message"].(string)
		if !ok {
			message = body
		}
		KafkaHoldsToExpireConsumer(message)
	})
	c.Listen()
}

func PointBalanceSyncConsumer() {
	qname := lib.WithSuffix("PointBalanceSync")
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		var payload types.JSONB
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			log.Printf("Error deserializing JSON: %s\n", err.Error())
			return
		}
		message, ok := payload["Message"].(string)
		if !ok {
			message = body
		}
		KafkaPointBalanceSyncConsumer(message)
	})
	c.Listen()
}
