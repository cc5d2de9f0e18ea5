package models

import (
	"log"
	"time"
	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTask persists a one-time schedule (hold expiry) so it can be
// re-queued after a restart.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:char(36)" json:"id"`

	Name       string      `json:"-"`
	JobType    string      `json:"-"`
	RunsAt     time.Time   `json:"-"`
	PayloadID  string      `json:"-"`
	Payload    types.JSONB `gorm:"serializer:json" json:"-"`
	Source     string      `json:"-"`
	SourceType string      `json:"-"`
	Status     string      `gorm:"default:'pending'" json:"-"`
	Topic      string      `json:"-"`
}

func (self *JobTask) CreateAndEnqueueJobTask(jobTask JobTask) (string, error) {
	var jobID string
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		vars := map[string]string{
			"name":     jobTask.Name,
			"topic":    jobTask.Topic,
			"clientId": jobTask.Source,
		}
		sid, err := lib.NewScheduledJob(jobTask.RunsAt, vars, jobTask.Payload)
		if err != nil {
			log.Printf("Error creating job [%s]: %s\n", jobTask.Name, err.Error())
			return err
		}
		jobID = sid.String()
		jobTask.ID = *sid
		jobTask.Payload["JobID"] = jobID
		err = tx.Create(&jobTask).Error
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("Created schedule for job %s with name %s at %s\n", jobID, jobTask.Name, jobTask.RunsAt.Format("2006-01-02T15:04:05"))
	return jobID, nil
}
