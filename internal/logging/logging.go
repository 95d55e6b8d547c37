package logging

import (
	"go.uber.org/zap"
)

// New builds the logger used by the processing pipeline. Development mode
// gets human-readable console output; anything else gets JSON.
func New(env string) (*zap.Logger, error) {
	if env == "development" || env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNop returns a no-op logger for callers that don't care about output.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
