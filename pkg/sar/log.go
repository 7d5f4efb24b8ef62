package sar

import "go.uber.org/zap"

var logger = newDefaultLogger()

func newDefaultLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// SetLogger replaces the package logger. Pass zap.NewNop() to silence
// the progress and warning output.
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}
