package temporal

import (
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

// ZerologAdapter routes Temporal SDK logs through zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

var (
	_ log.Logger     = (*ZerologAdapter)(nil)
	_ log.WithLogger = (*ZerologAdapter)(nil)
)

func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{
		logger: logger.With().Str("component", "temporal-sdk").Logger(),
	}
}

func (a *ZerologAdapter) emit(event *zerolog.Event, msg string, keyvals []interface{}) {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	event.Fields(keyvals).Msg(msg)
}

func (a *ZerologAdapter) Debug(msg string, keyvals ...interface{}) {
	a.emit(a.logger.Debug(), msg, keyvals)
}

func (a *ZerologAdapter) Info(msg string, keyvals ...interface{}) {
	a.emit(a.logger.Info(), msg, keyvals)
}

func (a *ZerologAdapter) Warn(msg string, keyvals ...interface{}) {
	a.emit(a.logger.Warn(), msg, keyvals)
}

func (a *ZerologAdapter) Error(msg string, keyvals ...interface{}) {
	a.emit(a.logger.Error(), msg, keyvals)
}

// With returns an adapter that stamps keyvals on every entry.
func (a *ZerologAdapter) With(keyvals ...interface{}) log.Logger {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	return &ZerologAdapter{logger: a.logger.With().Fields(keyvals).Logger()}
}
