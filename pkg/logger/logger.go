// Package logger is the process-wide structured logger. It keeps a small
// Info/Warn/Error/Fatal surface so call sites can pass a message followed by
// any mix of errors and key/value pairs.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the global logger for the given environment. Development
// gets a human readable console writer, everything else writes JSON.
// APP_LOG_LEVEL overrides the default level.
func Init(env string) {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel

	if strings.EqualFold(env, "development") || strings.EqualFold(env, "local") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	if lvl := os.Getenv("APP_LOG_LEVEL"); lvl != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(lvl)); err == nil {
			level = parsed
		}
	}

	SetOutput(out, level)
}

// SetOutput swaps the underlying writer. Tests use it to capture output.
func SetOutput(w io.Writer, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339
	log = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func Debug(msg string, args ...any) {
	emit(get().Debug(), msg, args)
}

func Info(msg string, args ...any) {
	emit(get().Info(), msg, args)
}

func Warn(msg string, args ...any) {
	emit(get().Warn(), msg, args)
}

func Error(msg string, args ...any) {
	emit(get().Error(), msg, args)
}

// Fatal logs and exits the process.
func Fatal(msg string, args ...any) {
	emit(get().Fatal(), msg, args)
}

func get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	l := log
	return &l
}

// emit turns loosely typed args into fields: errors go to Err, a string
// followed by a value becomes a key/value pair, anything else is a detail.
func emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}

	details := 0
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case error:
			ev = ev.Err(v)
		case string:
			if i+1 < len(args) {
				if err, isErr := args[i+1].(error); isErr {
					ev = ev.AnErr(v, err)
				} else {
					ev = ev.Interface(v, args[i+1])
				}
				i++
				continue
			}
			ev = ev.Str(detailKey(details), v)
			details++
		default:
			ev = ev.Interface(detailKey(details), v)
			details++
		}
	}

	ev.Msg(msg)
}

func detailKey(n int) string {
	if n == 0 {
		return "detail"
	}
	return fmt.Sprintf("detail_%d", n)
}
