package logging

import (
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// WhatsmeowLogger routes whatsmeow's printf-style logging into zap.
type WhatsmeowLogger struct {
	s *zap.SugaredLogger
}

var _ waLog.Logger = (*WhatsmeowLogger)(nil)

// NewWhatsmeowLogger wraps logger under the given whatsmeow module name.
func NewWhatsmeowLogger(logger *zap.Logger, module string) *WhatsmeowLogger {
	return &WhatsmeowLogger{s: logger.Named(module).Sugar()}
}

func (l *WhatsmeowLogger) Debugf(msg string, args ...any) { l.s.Debugf(msg, args...) }
func (l *WhatsmeowLogger) Infof(msg string, args ...any)  { l.s.Infof(msg, args...) }
func (l *WhatsmeowLogger) Warnf(msg string, args ...any)  { l.s.Warnf(msg, args...) }
func (l *WhatsmeowLogger) Errorf(msg string, args ...any) { l.s.Errorf(msg, args...) }

// Sub returns a child logger for a whatsmeow submodule.
func (l *WhatsmeowLogger) Sub(module string) waLog.Logger {
	return &WhatsmeowLogger{s: l.s.Named(module)}
}
