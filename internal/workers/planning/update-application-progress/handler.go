// internal/workers/planning/update-application-progress/handler.go
package updateapplicationprogress

import (
	"context"
	"encoding/json"
	"fmt"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "update-application-progress"
)

type ProgressUpdater interface {
	UpdateChecklistItem(ctx context.Context, actorID, studentID, universityID string, update planner.ChecklistUpdate) (models.ChecklistOverride, error)
	UpdateTimelineStep(ctx context.Context, actorID, studentID, universityID string, update planner.TimelineUpdate) (models.TimelineOverride, error)
	SetApplicationStatus(ctx context.Context, actorID, studentID, universityID string, status models.ApplicationStatus, notes *string) error
}

type Handler struct {
	config       *Config
	updater      ProgressUpdater
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, updater ProgressUpdater, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		updater:      updater,
		schema:       validation.MustCompile(inputSchema),
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
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

// Execute applies one progress update selected by action.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{Action: input.Action, Status: input.Status}

	switch input.Action {
	case ActionChecklist:
		o, err := h.updater.UpdateChecklistItem(ctx, input.ActorID, input.StudentID, input.UniversityID, planner.ChecklistUpdate{
			DocumentName: input.DocumentName,
			Status:       models.ChecklistStatus(input.Status),
			FileRef:      input.FileRef,
		})
		if err != nil {
			return nil, err
		}
		out.FileRef = o.FileRef
		out.LastUpdated = &o.LastUpdated

	case ActionTimeline:
		o, err := h.updater.UpdateTimelineStep(ctx, input.ActorID, input.StudentID, input.UniversityID, planner.TimelineUpdate{
			StepName:      input.StepName,
			Status:        models.TimelineStatus(input.Status),
			CompletedDate: input.CompletedDate,
		})
		if err != nil {
			return nil, err
		}
		out.CompletedDate = o.CompletedDate

	case ActionStatus:
		err := h.updater.SetApplicationStatus(ctx, input.ActorID, input.StudentID, input.UniversityID,
			models.ApplicationStatus(input.Status), input.Notes)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown action %q", input.Action))
	}

	h.logger.Info("application progress updated", map[string]interface{}{
		"action":       input.Action,
		"studentId":    input.StudentID,
		"universityId": input.UniversityID,
		"status":       input.Status,
	})
	return out, nil
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
		"action": output.Action,
	})
}
