// internal/workers/planning/shortlist-university/handler.go
package shortlistuniversity

import (
	"context"
	"encoding/json"
	"fmt"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "shortlist-university"
)

type Shortlister interface {
	Shortlist(ctx context.Context, actorID, studentID, universityID, notes string) (*models.ApplicationProgress, error)
	RemoveShortlist(ctx context.Context, actorID, studentID, universityID string) error
}

type Handler struct {
	config       *Config
	shortlister  Shortlister
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, shortlister Shortlister, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		shortlister:  shortlister,
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
	if input.Action == "" {
		input.Action = ActionAdd
	}
	return &input, nil
}

// Execute adds or removes the university from the student's shortlist.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	switch input.Action {
	case ActionRemove:
		if err := h.shortlister.RemoveShortlist(ctx, input.ActorID, input.StudentID, input.UniversityID); err != nil {
			return nil, err
		}
		return &Output{Shortlisted: false}, nil

	case ActionAdd, "":
		record, err := h.shortlister.Shortlist(ctx, input.ActorID, input.StudentID, input.UniversityID, input.Notes)
		if err != nil {
			return nil, err
		}
		return &Output{
			Shortlisted:       true,
			ProgressID:        record.ID,
			FitScoreSnapshot:  record.FitScoreSnapshot,
			ApplicationStatus: string(record.ApplicationStatus),
		}, nil
	}
	return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown action %q", input.Action))
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
		"jobKey":      job.Key,
		"shortlisted": output.Shortlisted,
	})
}
