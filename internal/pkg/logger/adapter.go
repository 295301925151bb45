package logger

import (
	"go.uber.org/zap"

	"metamon_player/internal/app/port"
)

// zapAdapter implements port.Logger on top of a zap SugaredLogger.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps l so it can be handed to services expecting port.Logger.
func NewZapAdapter(l *zap.Logger) port.Logger {
	return &zapAdapter{sugar: l.Sugar()}
}

// NewNop returns a port.Logger that discards everything.
func NewNop() port.Logger {
	return NewZapAdapter(zap.NewNop())
}

func (a *zapAdapter) Info(msg string, args ...any) {
	a.sugar.Infow(msg, args...)
}

func (a *zapAdapter) Debug(msg string, args ...any) {
	a.sugar.Debugw(msg, args...)
}

func (a *zapAdapter) Warn(msg string, args ...any) {
	a.sugar.Warnw(msg, args...)
}

func (a *zapAdapter) Error(msg string, args ...any) {
	a.sugar.Errorw(msg, args...)
}

func (a *zapAdapter) With(args ...any) port.Logger {
	return &zapAdapter{sugar: a.sugar.With(args...)}
}
