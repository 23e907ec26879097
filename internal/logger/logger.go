package logger

import (
	"go.uber.org/zap"
)

// Log is the engine-wide logger. Call Init once before use; packages on
// the render path keep it out of their per-frame code.
var Log *zap.Logger

func Init() {
	if Log != nil {
		return
	}
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	logger, err := config.Build()
	if err != nil {
		Log = zap.NewNop()
		return
	}
	Log = logger
}
