package boot

import (
	"log"
	"time"

	"travleap/src/common"
	"travleap/src/config"
	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/models"
	"travleap/src/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Partner{},
		&models.BookableUnit{},
		&models.Booking{},
		&models.Payment{},
		&models.PointLedgerEntry{},
		&models.AuditLog{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBalanceDb() *gorm.DB {
	bdb := db.GetBalanceDb()

	if err := bdb.AutoMigrate(&models.PointBalance{}); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return bdb
}

func InitBroker() {
	go RecoverQueuedJobs()
	go UpdateExpiredJobs()
	if config.API_ENV == "local" {
		go lib.KafkaCreateTopics(
			lib.WithSuffix("HoldsToExpire"),
			lib.WithSuffix("PointBalanceSync"),
			lib.WithSuffix("EmailsToSend"),
		)
		go lib.KafkaConsumerRun("holds", []string{lib.WithSuffix("HoldsToExpire")}, common.KafkaHoldsToExpireConsumer)
		go lib.KafkaConsumerRun("points", []string{lib.WithSuffix("PointBalanceSync")}, common.KafkaPointBalanceSyncConsumer)
		go lib.KafkaConsumerRun("emails", []string{lib.WithSuffix("EmailsToSend")}, common.KafkaEmailsToSendConsumer)
		return
	}
	common.SNSSubscribes()
	common.SQSConsumers()
}

// InitScheduler starts the background scheduler with the hold sweeper. The
// sweeper is the backstop for scheduled expiry jobs lost to broker downtime.
func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			if _, err := utils.SweepExpiredHolds(); err != nil {
				log.Printf("Error sweeping expired holds: %s\n", err.Error())
			}
		}),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// RecoverQueuedJobs requeues pending one-time jobs after a restart. Jobs whose
// run time already passed are handled by UpdateExpiredJobs and the sweeper.
func RecoverQueuedJobs() error {
	sched, err := lib.GetScheduler()
	if err != nil {
		return err
	}
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err = ss.
		Model(&models.JobTask{}).Select("id", "name", "payload", "runs_at").
		Where(&models.JobTask{Status: "pending", JobType: "OneTimeJobStartDateTime"}).
		Where("runs_at BETWEEN ? AND ?", today, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		log.Printf("Queueing: %s\n", jobTask.ID.String())
		payload := jobTask.Payload
		jobDef := gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(jobTask.RunsAt))
		jt := gocron.NewTask(func() {
			err := lib.KafkaProduceMessage(payload["producerClientId"].(string), payload["topic"].(string), &payload)
			if err != nil {
				log.Printf("Error on producing message: %s\n", err.Error())
				return
			}
		})
		job, err := sched.NewJob(
			jobDef,
			jt,
		)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", jobTask.Name, jobTask.ID.String(), job.ID().String())
	}

	return nil
}

func UpdateExpiredJobs() {
	db := db.GetDb()
	err := db.
		Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&models.JobTask{}).
				Where("status", "pending").
				Where("runs_at < ?", time.Now()).
				Update("status", "expired").Error
			if err != nil {
				return err
			}
			return nil
		})
	if err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
	}
}
