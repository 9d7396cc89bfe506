package kajak

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes through zerolog. Debug output is gated separately from
// the zerolog level so the console can toggle it at runtime.
type DefaultLogger struct {
	mu    sync.Mutex
	debug bool
	log   zerolog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return newLoggerTo(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}, prefix, debug)
}

func newLoggerTo(w io.Writer, prefix string, debug bool) *DefaultLogger {
	ctx := zerolog.New(w).With().Timestamp()
	if prefix != "" {
		ctx = ctx.Str("component", prefix)
	}
	return &DefaultLogger{debug: debug, log: ctx.Logger()}
}

// NewZerologLogger adapts an already configured zerolog logger.
func NewZerologLogger(l zerolog.Logger, debug bool) *DefaultLogger {
	return &DefaultLogger{debug: debug, log: l}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.log.WithLevel(zerolog.DebugLevel).Msg(fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.log.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.log.Error().Msg(fmt.Sprintf(format, args...))
}

// LoggingModule installs a default logger on the scene.
type LoggingModule struct {
	Prefix string
	Debug  bool
}

func (m LoggingModule) Install(s *Scene, cmd *Commands) {
	s.SetLogger(NewDefaultLogger(m.Prefix, m.Debug))
}

// Nop logger and Scene helper accessor

type nopLogger struct{}

func NewNopLogger() Logger                             { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the scene logger, or a no-op logger when none is set.
// Safe to call at any time; never returns nil.
func (s *Scene) Logger() Logger {
	if s == nil || s.logger == nil {
		return NewNopLogger()
	}
	return s.logger
}

// SetLogger replaces the scene logger and hands it to every resource that
// accepts one.
func (s *Scene) SetLogger(l Logger) {
	s.logger = l
	for _, r := range s.resources {
		if ls, ok := r.(loggerSetter); ok {
			ls.SetLogger(l)
		}
	}
}

type loggerSetter interface {
	SetLogger(l Logger)
}
