package pipeline

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Progress is the indicator shown while the dataset loads
type Progress interface {
	Show()
	Hide()
}

// LogProgress reports progress through the logger
type LogProgress struct {
	logger  *zap.Logger
	visible atomic.Bool
}

// NewLogProgress creates a progress indicator that logs state changes
func NewLogProgress(logger *zap.Logger) *LogProgress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogProgress{logger: logger}
}

func (p *LogProgress) Show() {
	if p.visible.CompareAndSwap(false, true) {
		p.logger.Debug("Loading dataset")
	}
}

func (p *LogProgress) Hide() {
	if p.visible.CompareAndSwap(true, false) {
		p.logger.Debug("Dataset load finished")
	}
}

// Visible reports whether the indicator is showing
func (p *LogProgress) Visible() bool {
	return p.visible.Load()
}
