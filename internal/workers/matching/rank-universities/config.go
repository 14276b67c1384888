// internal/workers/matching/rank-universities/config.go
package rankuniversities

import (
	"time"

	"pathfinder-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// MinFitScore drops matches below this score from the shortlist
	// candidates; the full ranking is always returned.
	MinFitScore int
}

func LoadConfig(w config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 20 * time.Second, MinFitScore: 50}
	if w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}
