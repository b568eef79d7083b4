package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the root logger. Local environments get the human-readable
// development encoder; everything else logs production JSON.
func New(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if env == "local" || env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
