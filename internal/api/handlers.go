// internal/api/handlers.go
package api

import (
	"fmt"
	"time"

	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"

	"github.com/gofiber/fiber/v2"
)

type rankRequest struct {
	UniversityIDs []string `json:"universityIds"`
}

type shortlistRequest struct {
	Notes string `json:"notes"`
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status"`
	Notes  *string                  `json:"notes"`
}

func (s *Server) getFitScore(c *fiber.Ctx) error {
	ctx, cancel := s.context(c)
	defer cancel()

	result, err := s.planner.ExplainFitScore(ctx, c.Params("studentId"), c.Params("universityId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"studentId":    c.Params("studentId"),
		"universityId": c.Params("universityId"),
		"fitScore":     result.Score,
		"breakdown":    result.Breakdown,
	})
}

func (s *Server) rankMatches(c *fiber.Ctx) error {
	var req rankRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := s.context(c)
	defer cancel()

	matches, err := s.planner.ComputeRankedMatches(ctx, c.Params("studentId"), req.UniversityIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"matches": matches, "matchCount": len(matches)})
}

func (s *Server) getPlan(c *fiber.Ctx) error {
	now := s.now()
	if raw := c.Query("now"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errors.NewInvalidInputError(fmt.Sprintf("now must be RFC3339: %v", err))
		}
		now = parsed
	}

	ctx, cancel := s.context(c)
	defer cancel()

	plan, err := s.planner.GetApplicationPlan(ctx, c.Params("studentId"), c.Params("universityId"), now)
	if err != nil {
		return err
	}
	return c.JSON(plan)
}

func (s *Server) listShortlist(c *fiber.Ctx) error {
	ctx, cancel := s.context(c)
	defer cancel()

	records, err := s.planner.ListShortlist(ctx, c.Params("studentId"))
	if err != nil {
		return err
	}
	if records == nil {
		records = []*models.ApplicationProgress{}
	}
	return c.JSON(fiber.Map{"shortlist": records})
}

func (s *Server) addShortlist(c *fiber.Ctx) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var req shortlistRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	ctx, cancel := s.context(c)
	defer cancel()

	record, err := s.planner.Shortlist(ctx, actorID, c.Params("studentId"), c.Params("universityId"), req.Notes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (s *Server) removeShortlist(c *fiber.Ctx) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.context(c)
	defer cancel()

	if err := s.planner.RemoveShortlist(ctx, actorID, c.Params("studentId"), c.Params("universityId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) updateChecklist(c *fiber.Ctx) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var update planner.ChecklistUpdate
	if err := parseBody(c, &update); err != nil {
		return err
	}

	ctx, cancel := s.context(c)
	defer cancel()

	override, err := s.planner.UpdateChecklistItem(ctx, actorID, c.Params("studentId"), c.Params("universityId"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"documentName": update.DocumentName,
		"status":       override.Status,
		"fileRef":      override.FileRef,
		"lastUpdated":  override.LastUpdated,
	})
}

func (s *Server) updateTimeline(c *fiber.Ctx) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var update planner.TimelineUpdate
	if err := parseBody(c, &update); err != nil {
		return err
	}

	ctx, cancel := s.context(c)
	defer cancel()

	override, err := s.planner.UpdateTimelineStep(ctx, actorID, c.Params("studentId"), c.Params("universityId"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"stepName":      update.StepName,
		"status":        override.Status,
		"completedDate": override.CompletedDate,
	})
}

func (s *Server) setStatus(c *fiber.Ctx) error {
	actorID, err := actor(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := s.context(c)
	defer cancel()

	if err := s.planner.SetApplicationStatus(ctx, actorID, c.Params("studentId"), c.Params("universityId"), req.Status, req.Notes); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"applicationStatus": req.Status})
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("request body: %v", err))
	}
	return nil
}
