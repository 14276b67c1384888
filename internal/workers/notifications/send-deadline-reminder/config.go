// internal/workers/notifications/send-deadline-reminder/config.go
package senddeadlinereminder

import (
	"strings"
	"time"

	"pathfinder-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	PlanURLBase  string
}

func LoadConfig(w config.WorkerConfig, n config.NotificationConfig) *Config {
	cfg := &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		PlanURLBase:  strings.TrimRight(n.PlanURLBase, "/"),
	}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}
