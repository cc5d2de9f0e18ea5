package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"travleap/src/config"
	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/lib/mailer"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const balanceCacheTTL = time.Minute

// LedgerSum is the authoritative point balance: the sum of all ledger deltas.
func LedgerSum(tx *gorm.DB, userId uint) (int64, error) {
	var sum *int64
	err := tx.Model(&models.PointLedgerEntry{}).
		Where("user_id = ?", userId).
		Select("SUM(delta)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// AppendLedgerEntry writes one immutable row to the point ledger. Balance is
// the running total after this entry, computed inside the caller's
// transaction. The sum over Delta is the authoritative balance; Balance is
// informational and can record a stale total when two transactions for the
// same user commit concurrently.
func AppendLedgerEntry(tx *gorm.DB, userId uint, delta int64, entryType types.LedgerEntryType, paymentId *uuid.UUID) (*models.PointLedgerEntry, error) {
	sum, err := LedgerSum(tx, userId)
	if err != nil {
		return nil, err
	}
	entry := models.PointLedgerEntry{
		UserID:    userId,
		Delta:     delta,
		EntryType: string(entryType),
		PaymentID: paymentId,
		Balance:   sum + delta,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// PushBalance recomputes the user's balance from the ledger and upserts it
// into the balance store. Always called after the ledger transaction commits,
// never before.
func PushBalance(userId uint) error {
	total, err := LedgerSum(db.GetDb(), userId)
	if err != nil {
		return err
	}
	return pushBalanceValue(userId, total)
}

func pushBalanceValue(userId uint, total int64) error {
	bdb := db.GetBalanceDb()
	balance := models.PointBalance{UserID: userId, TotalPoints: total, UpdatedAt: time.Now()}
	if err := bdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_points", "updated_at"}),
	}).Create(&balance).Error; err != nil {
		return err
	}
	go cachePoints(userId, total)
	return nil
}

func cachePoints(userId uint, total int64) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	key := fmt.Sprintf("points:%d", userId)
	if err := rd.SetEx(context.Background(), key, total, balanceCacheTTL).Err(); err != nil {
		log.Printf("Error caching balance for User [%d]: %s\n", userId, err.Error())
	}
}

// GetUserBalance reads the cached balance, falling back to the balance store.
// A user with no balance row simply has zero points.
func GetUserBalance(userId uint) (int64, error) {
	rd := lib.GetRedisClient()
	if rd != nil {
		key := fmt.Sprintf("points:%d", userId)
		if val, err := rd.Get(context.Background(), key).Int64(); err == nil {
			return val, nil
		}
	}
	var balance models.PointBalance
	bdb := db.GetBalanceDb()
	if err := bdb.Where(&models.PointBalance{UserID: userId}).First(&balance).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	go cachePoints(userId, balance.TotalPoints)
	return balance.TotalPoints, nil
}

// ReconcileUserBalance rebuilds the balance-store row from the ledger sum.
// Idempotent: replaying a sync message converges on the same value.
func ReconcileUserBalance(userId uint) (int64, error) {
	total, err := LedgerSum(db.GetDb(), userId)
	if err != nil {
		return 0, err
	}
	if err := pushBalanceValue(userId, total); err != nil {
		return 0, err
	}
	log.Printf("Balance reconciled for User [%d]: %d points\n", userId, total)
	return total, nil
}

// QueueBalanceSync enqueues a reconciliation for the user. Used when the
// balance push fails after a committed ledger write so the drift is repaired
// instead of dropped.
func QueueBalanceSync(userId uint, reason string) {
	payload := types.JSONB{
		"userId":    userId,
		"reason":    reason,
		"payloadId": uuid.NewString(),
	}
	if config.API_ENV == "local" {
		if err := lib.KafkaProduceMessage("points", lib.WithSuffix("PointBalanceSync"), &payload); err != nil {
			log.Printf("Error queueing balance sync for User [%d]: %s\n", userId, err.Error())
		}
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error queueing balance sync for User [%d]: %s\n", userId, err.Error())
		return
	}
	if err := lib.SQSProduceMessage(lib.WithSuffix("PointBalanceSync"), string(body)); err != nil {
		log.Printf("Error queueing balance sync for User [%d]: %s\n", userId, err.Error())
	}
}

// ReportCrossStoreFailure handles a balance push that failed after the ledger
// committed. The failure is logged, queued for retry, and alerted. Never fatal
// to the caller: the ledger is already durable.
func ReportCrossStoreFailure(userId uint, cause error) {
	log.Printf("Balance push failed for User [%d]: %s\n", userId, cause.Error())
	QueueBalanceSync(userId, cause.Error())
	go AlertOps("Point balance sync failure", fmt.Sprintf("Balance push failed for user %d: %s. A reconciliation has been queued.", userId, cause.Error()))
}

func AlertOps(subject, body string) {
	to := config.OpsEmail()
	if to == "" {
		return
	}
	input := lib.SendMailInput{
		From:     config.SMTP_FROM,
		FromName: "noreply",
		To:       []string{to},
		Subject:  subject,
		Body:     body,
	}
	if err := mailer.NewMailerMessage(&input); err != nil {
		log.Printf("Error sending ops alert: %s\n", err.Error())
	}
}
