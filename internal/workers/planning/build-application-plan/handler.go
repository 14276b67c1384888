// internal/workers/planning/build-application-plan/handler.go
package buildapplicationplan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/validation"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "build-application-plan"
)

type PlanBuilder interface {
	GetApplicationPlan(ctx context.Context, studentID, universityID string, now time.Time) (*planner.ApplicationPlan, error)
}

type Handler struct {
	config       *Config
	planner      PlanBuilder
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, planner PlanBuilder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		planner:      planner,
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

// Execute builds the plan and summarizes what is still outstanding.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	now := h.now()
	if input.AsOf != nil {
		now = *input.AsOf
	}

	plan, err := h.planner.GetApplicationPlan(ctx, input.StudentID, input.UniversityID, now)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Plan:       plan,
		WindowOpen: plan.WindowStatus.IsOpen,
		Urgency:    plan.WindowStatus.Urgency,
		DaysLeft:   plan.WindowStatus.DaysLeft,
	}
	for _, item := range plan.Checklist {
		if item.Required && item.Status == models.ChecklistPending {
			out.PendingDocuments++
		}
	}
	for _, step := range plan.Timeline {
		if step.Overdue {
			out.OverdueSteps++
		}
		if out.NextStep == "" && step.Status != models.TimelineCompleted {
			out.NextStep = step.StepName
		}
	}

	h.logger.Info("application plan built", map[string]interface{}{
		"studentId":        input.StudentID,
		"universityId":     input.UniversityID,
		"pendingDocuments": out.PendingDocuments,
		"overdueSteps":     out.OverdueSteps,
		"windowOpen":       out.WindowOpen,
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

	h.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key})
}
