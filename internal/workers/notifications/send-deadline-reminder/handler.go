// internal/workers/notifications/send-deadline-reminder/handler.go
package senddeadlinereminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/metrics"
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/engine"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-deadline-reminder"
)

type PlanBuilder interface {
	GetApplicationPlan(ctx context.Context, studentID, universityID string, now time.Time) (*planner.ApplicationPlan, error)
}

type StudentFetcher interface {
	GetStudent(ctx context.Context, studentID string) (*models.StudentProfile, error)
}

// Mailer is satisfied by the SES mailer.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) (string, error)
}

// Texter is satisfied by the SNS texter.
type Texter interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config       *Config
	planner      PlanBuilder
	students     StudentFetcher
	mailer       Mailer
	texter       Texter
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, planner PlanBuilder, students StudentFetcher, mailer Mailer, texter Texter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		planner:      planner,
		students:     students,
		mailer:       mailer,
		texter:       texter,
		schema:       validation.MustCompile(inputSchema),
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if err := h.schema.Validate([]byte(variables)); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute reminds the student of an open application window: by email
// whenever email is enabled, and also by SMS when the deadline is urgent.
// Closed windows and finished applications are skipped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	now := h.now()
	if input.AsOf != nil {
		now = *input.AsOf
	}

	plan, err := h.planner.GetApplicationPlan(ctx, input.StudentID, input.UniversityID, now)
	if err != nil {
		return nil, err
	}
	if !plan.Shortlisted {
		return nil, errors.NewNotShortlistedError(input.StudentID, input.UniversityID)
	}

	window := plan.WindowStatus
	out := &Output{Channels: []string{}, Urgency: window.Urgency, DaysLeft: window.DaysLeft}

	if reason := skipReason(plan); reason != "" {
		out.Status = StatusSkipped
		out.Reason = reason
		return out, nil
	}

	sendEmail := h.config.EmailEnabled && h.mailer != nil
	sendSMS := h.config.SMSEnabled && h.texter != nil && window.Urgency == engine.UrgencyHigh
	if !sendEmail && !sendSMS {
		out.Status = StatusDisabled
		return out, nil
	}

	student, err := h.students.GetStudent(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}
	sendEmail = sendEmail && strings.TrimSpace(student.Email) != ""
	sendSMS = sendSMS && strings.TrimSpace(student.Phone) != ""
	if !sendEmail && !sendSMS {
		return nil, errors.NewContactUnavailableError(input.StudentID, ChannelEmail)
	}

	msg := newReminder(student, plan, h.config.PlanURLBase)

	if sendEmail {
		body, err := msg.html()
		if err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		if _, err := h.mailer.Send(ctx, student.Email, msg.subject(), msg.text(), body); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		out.Channels = append(out.Channels, ChannelEmail)
		metrics.RemindersSent.WithLabelValues(ChannelEmail, window.Urgency).Inc()
	}

	out.Status = StatusSent
	if sendSMS {
		if _, err := h.texter.Send(ctx, student.Phone, msg.sms()); err != nil {
			// The email already went out; failing the job would send it again.
			if len(out.Channels) == 0 {
				return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
			}
			h.logger.Warn("sms reminder failed after email was sent", map[string]interface{}{
				"studentId": input.StudentID,
				"error":     err.Error(),
			})
			out.Status = StatusPartial
		} else {
			out.Channels = append(out.Channels, ChannelSMS)
			metrics.RemindersSent.WithLabelValues(ChannelSMS, window.Urgency).Inc()
		}
	}

	out.NotificationID = uuid.NewString()
	out.SentAt = now.UTC().Format(time.RFC3339)

	h.logger.Info("deadline reminder sent", map[string]interface{}{
		"studentId":    input.StudentID,
		"universityId": input.UniversityID,
		"channels":     out.Channels,
		"urgency":      window.Urgency,
		"daysLeft":     window.DaysLeft,
	})
	return out, nil
}

func skipReason(plan *planner.ApplicationPlan) string {
	switch plan.ApplicationStatus {
	case models.StatusSubmitted, models.StatusAccepted, models.StatusRejected, models.StatusWaitlisted:
		return "application already " + strings.ToLower(string(plan.ApplicationStatus))
	}
	if !plan.WindowStatus.IsOpen {
		return plan.WindowStatus.Label
	}
	return ""
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, fmt.Errorf("encode output: %w", err))
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"status": output.Status,
	})
}
