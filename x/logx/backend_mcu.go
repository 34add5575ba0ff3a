//go:build rp2350

package logx

import (
	"io"

	"bringup-go/x/conv"
)

var (
	out   io.Writer
	line  []byte
	level = LevelInfo
)

func setup(l Level, w io.Writer, buf []byte) {
	level, out, line = l, w, buf[:0]
}

// lineWriter fills the arena line buffer and drops what does not fit,
// keeping one byte for the newline.
type lineWriter struct{ b []byte }

func (w *lineWriter) bytes(p []byte) {
	n := copy(w.b[len(w.b):cap(w.b)-1], p)
	w.b = w.b[:len(w.b)+n]
}

func (w *lineWriter) str(s string) {
	n := copy(w.b[len(w.b):cap(w.b)-1], s)
	w.b = w.b[:len(w.b)+n]
}

// emit formats "[level] msg k=v ..." into the arena line buffer. Lines that
// outgrow the buffer are cut at its capacity.
func emit(l Level, msg string, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil || l < level {
		return
	}
	w := lineWriter{b: line[:0]}
	w.str("[")
	w.str(l.String())
	w.str("] ")
	w.str(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		w.str(" ")
		if k, ok := kv[i].(string); ok {
			w.str(k)
		}
		w.str("=")
		writeValue(&w, kv[i+1])
	}
	b := append(w.b, '\n')
	_, _ = out.Write(b)
}

func writeValue(w *lineWriter, v any) {
	var num [24]byte
	switch x := v.(type) {
	case string:
		w.str(x)
	case int:
		w.bytes(conv.AppendInt(num[:0], int64(x)))
	case int64:
		w.bytes(conv.AppendInt(num[:0], x))
	case uint16:
		w.bytes(conv.AppendUint(num[:0], uint64(x)))
	case uint32:
		w.bytes(conv.AppendUint(num[:0], uint64(x)))
	case uint64:
		w.bytes(conv.AppendHex(append(num[:0], "0x"...), x, 16))
	case bool:
		if x {
			w.str("true")
		} else {
			w.str("false")
		}
	case error:
		w.str(x.Error())
	case interface{ String() string }:
		w.str(x.String())
	default:
		w.str("?")
	}
}

func flush() {}
