package log

import "github.com/kataras/golog"

// GologLogger is the kernel's default Logger, backed by golog.
type GologLogger struct {
	logger *golog.Logger
	level  Level
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger builds a GologLogger at the given level using golog's
// default logger instance.
func NewGologLogger(level Level) *GologLogger {
	g := &GologLogger{logger: golog.Default, level: level}
	g.SetLevel(level)
	return g
}

// NewGologLoggerFrom wraps an existing *golog.Logger, e.g. one already
// configured with custom output or handlers by the host application.
func NewGologLoggerFrom(logger *golog.Logger, level Level) *GologLogger {
	g := &GologLogger{logger: logger, level: level}
	g.SetLevel(level)
	return g
}

func (g *GologLogger) Debug(format string, v ...any) {
	if g.level > LevelDebug {
		return
	}
	g.logger.Debugf(format, v...)
}

func (g *GologLogger) Info(format string, v ...any) {
	if g.level > LevelInfo {
		return
	}
	g.logger.Infof(format, v...)
}

func (g *GologLogger) Warn(format string, v ...any) {
	if g.level > LevelWarn {
		return
	}
	g.logger.Warnf(format, v...)
}

func (g *GologLogger) Error(format string, v ...any) {
	if g.level > LevelError {
		return
	}
	g.logger.Errorf(format, v...)
}

// SetLevel updates the logger's level, mapping to golog's own level names.
func (g *GologLogger) SetLevel(level Level) {
	g.level = level
	switch level {
	case LevelDebug:
		g.logger.SetLevel("debug")
	case LevelInfo:
		g.logger.SetLevel("info")
	case LevelWarn:
		g.logger.SetLevel("warn")
	case LevelError:
		g.logger.SetLevel("error")
	case LevelNone:
		g.logger.SetLevel("disable")
	}
}

// GetLevel returns the logger's current level.
func (g *GologLogger) GetLevel() Level { return g.level }
