// internal/workers/planning/update-application-progress/config.go
package updateapplicationprogress

import (
	"time"

	"pathfinder-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(w config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 10 * time.Second}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}
