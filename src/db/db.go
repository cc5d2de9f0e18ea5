package db

import (
	"log"
	"travleap/src/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB
var balanceDb *gorm.DB

// GetDb returns the ledger store connection. Bookings, payments and the
// point ledger are all written here.
func GetDb() *gorm.DB {
	if db != nil {
		return db
	}
	_db, err := gorm.Open(mysql.Open(config.GetDSN()))
	if err != nil {
		log.Printf("Error connecting to ledger database: %s\n", err.Error())
		panic(err)
	}
	sqlDB, err := _db.DB()
	if err != nil {
		log.Fatalf("Error establishing connection to ledger database: %s\n", err.Error())
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	db = _db
	return _db
}

// NewDB Replace ledger store instance with custom implementation
func NewDB(newdb *gorm.DB) {
	db = newdb
}

// GetBalanceDb returns the balance store connection. It holds only the
// cached per-user point totals and is physically separate from the ledger.
func GetBalanceDb() *gorm.DB {
	if balanceDb != nil {
		return balanceDb
	}
	_db, err := gorm.Open(postgres.Open(config.GetBalanceDSN()))
	if err != nil {
		log.Printf("Error connecting to balance database: %s\n", err.Error())
		panic(err)
	}
	sqlDB, err := _db.DB()
	if err != nil {
		log.Fatalf("Error establishing connection to balance database: %s\n", err.Error())
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)

	balanceDb = _db
	return _db
}

// NewBalanceDB Replace balance store instance with custom implementation
func NewBalanceDB(newdb *gorm.DB) {
	balanceDb = newdb
}
