package kafka

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// KgoZapLogger adapts franz-go's internal logging interface to this
// codebase's zap logger so transport-level client activity ends up in the
// same structured log stream as everything else.
type KgoZapLogger struct {
	logger *zap.SugaredLogger
}

func (l KgoZapLogger) Level() kgo.LogLevel {
	return kgo.LogLevelInfo
}

func (l KgoZapLogger) Log(level kgo.LogLevel, msg string, keyvals ...interface{}) {
	switch level {
	case kgo.LogLevelError:
		l.logger.Errorw(msg, keyvals...)
	case kgo.LogLevelWarn:
		l.logger.Warnw(msg, keyvals...)
	case kgo.LogLevelInfo:
		l.logger.Infow(msg, keyvals...)
	default:
		l.logger.Debugw(msg, keyvals...)
	}
}
