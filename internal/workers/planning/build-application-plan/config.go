// internal/workers/planning/build-application-plan/config.go
package buildapplicationplan

import (
	"time"

	"pathfinder-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(w config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 15 * time.Second}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}
