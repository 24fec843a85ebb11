package telemetry

import (
	"context"
	"log/slog"
)

// SlogRecorder writes events to a slog.Logger. High-volume categories
// (feeding, combat) are logged at debug level.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder creates a recorder; a nil logger uses slog.Default().
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{logger: logger}
}

func levelFor(c Category) slog.Level {
	switch c {
	case CategoryFeeding, CategoryCombat, CategoryBirth, CategoryDeath:
		return slog.LevelDebug
	case CategoryError:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Record logs e.
func (r *SlogRecorder) Record(e Event) {
	level := levelFor(e.Category)
	ctx := context.Background()
	if !r.logger.Enabled(ctx, level) {
		return
	}
	r.logger.Log(ctx, level, e.Message,
		"tick", e.Tick,
		"category", string(e.Category),
		slog.Any("data", e.Data),
	)
}
