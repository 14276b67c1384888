// internal/workers/matching/rank-universities/handler.go
package rankuniversities

import (
	"context"
	"encoding/json"
	"fmt"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/service/planner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-universities"
)

type Ranker interface {
	ComputeRankedMatches(ctx context.Context, studentID string, universityIDs []string) ([]planner.Match, error)
}

type Handler struct {
	config       *Config
	ranker       Ranker
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, ranker Ranker, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ranker:       ranker,
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

// Execute ranks the universities and picks out those worth shortlisting.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	matches, err := h.ranker.ComputeRankedMatches(ctx, input.StudentID, input.UniversityIDs)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Matches:    matches,
		Candidates: []string{},
		Count:      len(matches),
	}
	if len(matches) > 0 {
		top := matches[0]
		out.TopMatch = &top
	}
	for _, m := range matches {
		if m.FitScore >= h.config.MinFitScore {
			out.Candidates = append(out.Candidates, m.UniversityID)
		}
	}

	h.logger.Info("universities ranked", map[string]interface{}{
		"studentId":  input.StudentID,
		"matchCount": out.Count,
		"candidates": len(out.Candidates),
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
		"jobKey":     job.Key,
		"matchCount": output.Count,
	})
}
