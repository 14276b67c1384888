// internal/api/server.go
package api

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/errors"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/metrics"
	"pathfinder-workers/internal/engine"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"

	"github.com/gofiber/fiber/v2"
)

// ActorHeader carries the authenticated caller, set by the upstream gateway.
const ActorHeader = "X-Actor-ID"

// Planner is the slice of the planning service exposed over HTTP.
type Planner interface {
	ExplainFitScore(ctx context.Context, studentID, universityID string) (engine.FitResult, error)
	ComputeRankedMatches(ctx context.Context, studentID string, universityIDs []string) ([]planner.Match, error)
	GetApplicationPlan(ctx context.Context, studentID, universityID string, now time.Time) (*planner.ApplicationPlan, error)
	ListShortlist(ctx context.Context, studentID string) ([]*models.ApplicationProgress, error)
	Shortlist(ctx context.Context, actorID, studentID, universityID, notes string) (*models.ApplicationProgress, error)
	RemoveShortlist(ctx context.Context, actorID, studentID, universityID string) error
	UpdateChecklistItem(ctx context.Context, actorID, studentID, universityID string, update planner.ChecklistUpdate) (models.ChecklistOverride, error)
	UpdateTimelineStep(ctx context.Context, actorID, studentID, universityID string, update planner.TimelineUpdate) (models.TimelineOverride, error)
	SetApplicationStatus(ctx context.Context, actorID, studentID, universityID string, status models.ApplicationStatus, notes *string) error
}

type Server struct {
	app     *fiber.App
	planner Planner
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time
}

func NewServer(cfg config.HTTPConfig, p Planner, log logger.Logger) *Server {
	s := &Server{
		planner: p,
		timeout: config.GetDuration(cfg.RequestTimeout),
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
		now:     time.Now,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "pathfinder-workers",
		Immutable:             true,
		ReadTimeout:           config.GetDuration(cfg.ReadTimeout),
		WriteTimeout:          config.GetDuration(cfg.WriteTimeout),
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
	})
	s.app.Use(s.observe)
	s.routes()
	return s
}

func (s *Server) routes() {
	students := s.app.Group("/api/students/:studentId")

	students.Get("/universities/:universityId/fit-score", s.getFitScore)
	students.Get("/universities/:universityId/plan", s.getPlan)
	students.Post("/matches", s.rankMatches)

	students.Get("/shortlist", s.listShortlist)
	students.Post("/shortlist/:universityId", s.addShortlist)
	students.Delete("/shortlist/:universityId", s.removeShortlist)
	students.Put("/shortlist/:universityId/checklist", s.updateChecklist)
	students.Put("/shortlist/:universityId/timeline", s.updateTimeline)
	students.Put("/shortlist/:universityId/status", s.setStatus)
}

// App exposes the router, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("api listening", map[string]interface{}{"address": addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// ==========================
// Middleware
// ==========================

func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	metrics.HTTPRequests.
		WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fiber.Map{"code": "HTTP_" + strconv.Itoa(fe.Code), "message": fe.Message},
		})
	}

	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"code":   string(stdErr.Code),
			"error":  stdErr.Details,
		})
	}
	return c.Status(status).JSON(fiber.Map{"error": stdErr})
}

func statusOf(err error) int {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return errors.HTTPStatus(errors.AsStandardError(err).Code)
}

func (s *Server) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), s.timeout)
}

func actor(c *fiber.Ctx) (string, error) {
	id := c.Get(ActorHeader)
	if id == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing "+ActorHeader+" header")
	}
	return id, nil
}
