package models

import (
	"time"

	"github.com/bondwatch/bondwatch/internal/errors"
)

// EventLog is an application event persisted for the dashboard's log view.
type EventLog struct {
	ID        int       `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;autoCreateTime;index"`
	Message   string    `json:"message" gorm:"column:message;type:text;not null"`
}

// TableName returns the table name for the EventLog model
func (EventLog) TableName() string {
	return "event_logs"
}

// Validate validates the event log entry
func (e *EventLog) Validate() error {
	if e.Message == "" {
		return &errors.ErrValidation{Field: "message", Message: "message is required"}
	}
	return nil
}
