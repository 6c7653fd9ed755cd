package meter

import (
	"log/slog"

	"github.com/shelfscan/shelfscan"
)

// LogMeter logs chain events using slog.
type LogMeter struct {
	Logger *slog.Logger
}

var _ shelfscan.Meter = (*LogMeter)(nil)

// NewLogMeter creates a LogMeter with the given logger.
// If logger is nil, slog.Default() is used.
func NewLogMeter(logger *slog.Logger) *LogMeter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMeter{Logger: logger}
}

func (m *LogMeter) OnAttempt(e shelfscan.AttemptEvent) {
	m.Logger.Info("attempt",
		"request_id", e.RequestID,
		"op", e.Operation,
		"provider", e.Provider,
		"key", string(e.Key),
		"attempt", e.Attempt,
	)
}

func (m *LogMeter) OnResult(e shelfscan.ResultEvent) {
	if e.Resolved {
		m.Logger.Info("resolved",
			"request_id", e.RequestID,
			"op", e.Operation,
			"provider", e.Provider,
			"source", e.Source.String(),
			"duration_ms", e.Duration.Milliseconds(),
		)
		return
	}
	m.Logger.Warn("advance",
		"request_id", e.RequestID,
		"op", e.Operation,
		"provider", e.Provider,
		"class", e.Classification.String(),
		"rate_limited", e.RateLimited,
		"duration_ms", e.Duration.Milliseconds(),
		"error", e.Err,
	)
}
