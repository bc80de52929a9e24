package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const productionEnv = "production"

// NewLogger builds the process logger: JSON in production, colored console
// everywhere else. Every entry carries the service name so sweep output can
// be told apart in shared log streams.
func NewLogger(env string) *zap.Logger {
	var config zap.Config

	if env == productionEnv {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}

	logger, err := config.Build(zap.Fields(zap.String("service", "session-booking")))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}
