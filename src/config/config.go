package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

var API_ENV = os.Getenv("API_ENV")

// GetDSN builds the MySQL connection string for the ledger store. Bookings,
// payments and the point ledger live here.
func GetDSN() string {
	LEDGER_DB_HOST := os.Getenv("LEDGER_DB_HOST")
	LEDGER_DB_PORT := os.Getenv("LEDGER_DB_PORT")
	LEDGER_DB_USER := os.Getenv("LEDGER_DB_USER")
	LEDGER_DB_PASSWORD := os.Getenv("LEDGER_DB_PASSWORD")
	LEDGER_DB_NAME := os.Getenv("LEDGER_DB_NAME")
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", LEDGER_DB_USER, LEDGER_DB_PASSWORD, LEDGER_DB_HOST, LEDGER_DB_PORT, LEDGER_DB_NAME)
	return dsn
}

// GetBalanceDSN builds the Postgres connection string for the balance store.
// Only the cached point balances live here.
func GetBalanceDSN() string {
	BALANCE_DB_HOST := os.Getenv("BALANCE_DB_HOST")
	BALANCE_DB_PORT := os.Getenv("BALANCE_DB_PORT")
	BALANCE_DB_SSLMODE := os.Getenv("BALANCE_DB_SSLMODE")
	BALANCE_DB_TIMEZONE := os.Getenv("BALANCE_DB_TIMEZONE")
	BALANCE_DB_USER := os.Getenv("BALANCE_DB_USER")
	BALANCE_DB_PASSWORD := os.Getenv("BALANCE_DB_PASSWORD")
	BALANCE_DB_NAME := os.Getenv("BALANCE_DB_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", BALANCE_DB_HOST, BALANCE_DB_USER, BALANCE_DB_PASSWORD, BALANCE_DB_NAME, BALANCE_DB_PORT, BALANCE_DB_SSLMODE, BALANCE_DB_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

// HOLD_TTL is how long a hold keeps capacity committed before it lapses.
const HOLD_TTL = 10 * time.Minute

// PointAccrualPercent returns the loyalty accrual rate as a percentage of
// the payment amount.
func PointAccrualPercent() float64 {
	v := os.Getenv("POINT_ACCRUAL_PERCENT")
	if v == "" {
		return 2
	}
	pct, err := strconv.ParseFloat(v, 64)
	if err != nil || pct < 0 {
		return 2
	}
	return pct
}

func WebhookSecret() string {
	return os.Getenv("PAYMENT_WEBHOOK_SECRET")
}

func OpsEmail() string {
	return os.Getenv("OPS_ALERT_EMAIL")
}

var SMTP_FROM = os.Getenv("SMTP_FROM")
