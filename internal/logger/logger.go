package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	log  zerolog.Logger
	once sync.Once
)

// Init configures the process logger. Only the first call has an effect.
// The logger also becomes the fallback for zerolog.Ctx.
func Init(level string) *zerolog.Logger {
	once.Do(func() {
		log = New(os.Stdout, level)
		zerolog.DefaultContextLogger = &log
	})
	return &log
}

// Get returns the process logger, initialising it at info level if needed.
func Get() *zerolog.Logger {
	return Init("info")
}

// New builds a logger writing JSON lines to w.
func New(w io.Writer, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
