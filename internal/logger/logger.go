package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"comicdl/internal/domain"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zerolog.Logger whose level can be changed at runtime.
type Logger interface {
	Log() *zerolog.Event
	Fatal() *zerolog.Event
	Err(err error) *zerolog.Event
	Error() *zerolog.Event
	Warn() *zerolog.Event
	Info() *zerolog.Event
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	With() zerolog.Context
	SetLogLevel(level string)
}

// DefaultLogger never filters by itself. The level is the zerolog global
// level, so loggers derived through With follow SetLogLevel too.
type DefaultLogger struct {
	log     zerolog.Logger
	writers []io.Writer
}

func New(cfg *domain.Config) Logger {
	l := &DefaultLogger{
		writers: make([]io.Writer, 0),
	}

	if cfg.LogPath != "" {
		l.writers = append(l.writers, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSize, // megabytes
			MaxBackups: cfg.LogMaxBackups,
		})
	} else {
		l.writers = append(l.writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime})
	}

	zerolog.TimeFieldFormat = time.RFC3339

	l.log = zerolog.New(io.MultiWriter(l.writers...)).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	l.SetLogLevel(cfg.LogLevel)

	return l
}

// Nop returns a logger that discards everything, used in tests.
func Nop() Logger {
	return &DefaultLogger{log: zerolog.Nop()}
}

func (l *DefaultLogger) SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(lvl)
}

// Level returns the level currently in effect.
func (l *DefaultLogger) Level() zerolog.Level {
	return zerolog.GlobalLevel()
}

func (l *DefaultLogger) Log() *zerolog.Event {
	return l.log.Log()
}

func (l *DefaultLogger) Fatal() *zerolog.Event {
	return l.log.Fatal()
}

func (l *DefaultLogger) Err(err error) *zerolog.Event {
	return l.log.Err(err)
}

func (l *DefaultLogger) Error() *zerolog.Event {
	return l.log.Error()
}

func (l *DefaultLogger) Warn() *zerolog.Event {
	return l.log.Warn()
}

func (l *DefaultLogger) Info() *zerolog.Event {
	return l.log.Info()
}

func (l *DefaultLogger) Trace() *zerolog.Event {
	return l.log.Trace()
}

func (l *DefaultLogger) Debug() *zerolog.Event {
	return l.log.Debug()
}

func (l *DefaultLogger) With() zerolog.Context {
	return l.log.With()
}
