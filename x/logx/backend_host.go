//go:build !rp2350

package logx

import (
	"io"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.SugaredLogger]

func init() { logger.Store(zap.NewNop().Sugar()) }

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// lineSink copies each encoded entry through the arena line buffer before
// writing it, cutting entries that outgrow the buffer.
type lineSink struct {
	out io.Writer
	buf []byte
}

func (s *lineSink) Write(p []byte) (int, error) {
	n := copy(s.buf, p)
	if n < len(p) {
		s.buf[n-1] = '\n'
	}
	_, err := s.out.Write(s.buf[:n])
	return len(p), err
}

// setup builds the zap core over the arena line buffer.
func setup(level Level, out io.Writer, buf []byte) {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	sink := zapcore.Lock(zapcore.AddSync(&lineSink{out: out, buf: buf}))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), sink, zapLevel(level))
	logger.Store(zap.New(core).Sugar())
}

func emit(level Level, msg string, kv []any) {
	l := logger.Load()
	switch level {
	case LevelDebug:
		l.Debugw(msg, kv...)
	case LevelWarn:
		l.Warnw(msg, kv...)
	case LevelError:
		l.Errorw(msg, kv...)
	default:
		l.Infow(msg, kv...)
	}
}

func flush() { _ = logger.Load().Sync() }

// Zap exposes the configured logger to host-only tooling.
func Zap() *zap.Logger { return logger.Load().Desugar() }
