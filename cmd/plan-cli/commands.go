// cmd/plan-cli/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/models"
	"pathfinder-workers/internal/service/planner"
	"pathfinder-workers/internal/store/memstore"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "plan-cli"

const (
	defaultStudentID    = "student"
	defaultUniversityID = "university"
)

// session is what every subcommand needs: a planner over the loaded files.
type session struct {
	planner      *planner.Planner
	store        *memstore.Store
	studentID    string
	universityID string
	now          time.Time
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           app,
		Short:         "Evaluate fit scores and application plans from JSON files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file with a planner section")
	root.PersistentFlags().String("student", "", "student profile JSON file")
	root.PersistentFlags().String("university", "", "university requirements JSON file")
	root.PersistentFlags().String("now", "", "evaluation time, RFC3339 (default is the current time)")
	root.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(
		newScoreCommand(v),
		newPlanCommand(v),
		newWindowCommand(v),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
			},
		},
	)
	return root
}

func newScoreCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Print the fit score and its breakdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(v, true)
			if err != nil {
				return err
			}
			result, err := s.planner.ExplainFitScore(cmd.Context(), s.studentID, s.universityID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"studentId":    s.studentID,
				"universityId": s.universityID,
				"fitScore":     result.Score,
				"breakdown":    result.Breakdown,
			})
		},
	}
}

func newPlanCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the checklist, timeline and window for one application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(v, true)
			if err != nil {
				return err
			}
			if path := v.GetString("progress"); path != "" {
				var progress models.ApplicationProgress
				if err := readJSON(path, &progress); err != nil {
					return err
				}
				progress.StudentID = s.studentID
				progress.UniversityID = s.universityID
				s.store.PutProgress(progress)
			}
			plan, err := s.planner.GetApplicationPlan(cmd.Context(), s.studentID, s.universityID, s.now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().String("progress", "", "saved progress JSON file")
	_ = v.BindPFlag("progress", cmd.Flags().Lookup("progress"))
	return cmd
}

func newWindowCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "window",
		Short: "Print the application window status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(v, false)
			if err != nil {
				return err
			}
			window, err := s.planner.ResolveWindow(cmd.Context(), s.universityID, s.now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), window)
		},
	}
}

func openSession(v *viper.Viper, needStudent bool) (*session, error) {
	cfg, err := config.LoadPlanner(v.GetString("config"))
	if err != nil {
		return nil, err
	}

	s := &session{store: memstore.New(), now: time.Now().UTC()}
	if raw := v.GetString("now"); raw != "" {
		if s.now, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, fmt.Errorf("--now must be RFC3339: %w", err)
		}
	}

	uniPath := v.GetString("university")
	if uniPath == "" {
		return nil, fmt.Errorf("--university is required")
	}
	var req models.RequirementModel
	if err := readJSON(uniPath, &req); err != nil {
		return nil, err
	}
	if req.UniversityID == "" {
		req.UniversityID = defaultUniversityID
	}
	s.universityID = req.UniversityID
	s.store.PutUniversity(req)

	if needStudent {
		studentPath := v.GetString("student")
		if studentPath == "" {
			return nil, fmt.Errorf("--student is required")
		}
		var student models.StudentProfile
		if err := readJSON(studentPath, &student); err != nil {
			return nil, err
		}
		if student.ID == "" {
			student.ID = defaultStudentID
		}
		s.studentID = student.ID
		s.store.PutStudent(student)
	}

	level := "warn"
	if v.GetBool("debug") {
		level = "debug"
	}
	zl, err := logger.New(config.LoggingConfig{Level: level, Output: "stderr"})
	if err != nil {
		return nil, err
	}
	s.planner = planner.New(cfg, s.store, s.store, s.store, s.store, logger.NewZapAdapter(zl))
	return s, nil
}

func readJSON(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
