package salsaauth

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// NewZerologLogger adapts a zerolog.Logger to the Logger interface.
// Messages with printf verbs are formatted; otherwise trailing arguments
// are treated as alternating key/value pairs and attached as fields.
func NewZerologLogger(log zerolog.Logger) Logger {
	return &zerologLogger{log: log}
}

type zerologLogger struct {
	log zerolog.Logger
}

func (z *zerologLogger) Debug(format string, args ...any) {
	emit(z.log.Debug(), format, args...)
}

func (z *zerologLogger) Info(format string, args ...any) {
	emit(z.log.Info(), format, args...)
}

func (z *zerologLogger) Error(format string, args ...any) {
	emit(z.log.Error(), format, args...)
}

func emit(evt *zerolog.Event, format string, args ...any) {
	if len(args) == 0 {
		evt.Msg(format)
		return
	}

	if strings.Contains(format, "%") {
		evt.Msg(fmt.Sprintf(format, args...))
		return
	}

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		evt = evt.Interface(key, args[i+1])
	}

	evt.Msg(strings.TrimSuffix(format, ": "))
}
