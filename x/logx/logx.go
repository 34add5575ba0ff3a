// Package logx is the firmware's leveled, key/value logger.
//
// Host builds log through zap; MCU builds format into a line buffer taken
// from the heap arena and write to the board console. Until Init runs every
// call is a no-op, so packages may log unconditionally.
package logx

import (
	"io"
	"strings"
	"sync"

	"bringup-go/errcode"
	"bringup-go/internal/heap"
)

// EnvVar names the environment variable holding the log level.
const EnvVar = "LOG_LEVEL"

// lineBufSize bounds one formatted MCU log line.
const lineBufSize = 256

type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" (any case)
// to a Level. Anything else, including "", yields LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// LevelFromEnv returns the level configured in EnvVar.
func LevelFromEnv() Level {
	l, _ := ParseLevel(lookupEnv(EnvVar))
	return l
}

var (
	mu     sync.Mutex
	inited bool
)

// Init starts logging at level, writing to out. The line buffer comes from
// alloc, so the heap arena must be initialised first. Init runs once.
func Init(alloc heap.Allocator, level Level, out io.Writer) error {
	mu.Lock()
	defer mu.Unlock()
	if inited {
		return &errcode.E{C: errcode.AlreadyInitialized, Op: "logx init"}
	}
	buf, err := alloc.Alloc(lineBufSize)
	if err != nil {
		return err
	}
	setup(level, out, buf)
	inited = true
	return nil
}

func Debug(msg string, kv ...any) { emit(LevelDebug, msg, kv) }
func Info(msg string, kv ...any)  { emit(LevelInfo, msg, kv) }
func Warn(msg string, kv ...any)  { emit(LevelWarn, msg, kv) }
func Error(msg string, kv ...any) { emit(LevelError, msg, kv) }

// Sync flushes buffered output.
func Sync() { flush() }
