package app

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a production JSON logger when production is set, otherwise a
// human-readable development logger
func NewLogger(production bool, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}
