package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger строит логгер под окружение: JSON + Info для production,
// цветной текст + Debug для разработки. Имя окружения вшивается в каждую
// запись.
func NewLogger(env string) *zap.Logger {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}

	logger, err := config.Build(zap.Fields(zap.String("env", env)))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}
