// internal/workers/matching/calculate-fit-score/handler.go
package calculatefitscore

import (
	"context"
	"encoding/json"
	"fmt"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/engine"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-fit-score"
)

// FitScorer computes a student's fit for one university.
type FitScorer interface {
	ExplainFitScore(ctx context.Context, studentID, universityID string) (engine.FitResult, error)
}

type Handler struct {
	config       *Config
	scorer       FitScorer
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, scorer FitScorer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       scorer,
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

// Execute scores the pair and returns the score with its breakdown.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.scorer.ExplainFitScore(ctx, input.StudentID, input.UniversityID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("fit score calculated", map[string]interface{}{
		"studentId":    input.StudentID,
		"universityId": input.UniversityID,
		"fitScore":     result.Score,
	})

	return &Output{FitScore: result.Score, Breakdown: result.Breakdown}, nil
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
		"jobKey":   job.Key,
		"fitScore": output.FitScore,
	})
}
