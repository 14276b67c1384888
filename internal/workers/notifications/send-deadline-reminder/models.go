// internal/workers/notifications/send-deadline-reminder/models.go
package senddeadlinereminder

import (
	"time"

	"pathfinder-workers/internal/common/validation"
)

const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type Input struct {
	StudentID    string     `json:"studentId"`
	UniversityID string     `json:"universityId"`
	AsOf         *time.Time `json:"asOf,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId,omitempty"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels"`
	Reason         string   `json:"reason,omitempty"`
	Urgency        string   `json:"urgency,omitempty"`
	DaysLeft       int      `json:"daysLeft"`
	SentAt         string   `json:"sentAt,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["studentId", "universityId"],
  "properties": {
    "studentId":    {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "universityId": {"type": "string", "pattern": "` + validation.IDPattern + `"},
    "asOf":         {"type": "string", "format": "date-time"}
  }
}`
