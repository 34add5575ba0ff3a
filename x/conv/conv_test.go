package conv

import (
	"math"
	"testing"
)

func TestAppendInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-42, "-42"},
		{math.MaxInt64, "9223372036854775807"},
		{math.MinInt64, "-9223372036854775808"},
	}
	for _, tc := range tests {
		if got := string(AppendInt(nil, tc.in)); got != tc.want {
			t.Errorf("AppendInt(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := string(AppendUint([]byte("n="), math.MaxUint64)); got != "n=18446744073709551615" {
		t.Errorf("AppendUint max = %q", got)
	}
}

func TestAppendHexAndMAC(t *testing.T) {
	if got := string(AppendHex(nil, 0x34, 2)); got != "34" {
		t.Errorf("AppendHex = %q", got)
	}
	if got := string(AppendHex(nil, 0xAABBCCDD11223344, 16)); got != "aabbccdd11223344" {
		t.Errorf("AppendHex 64 = %q", got)
	}
	mac := []byte{0x02, 0x00, 0x5e, 0x00, 0x00, 0x01}
	if got := string(AppendMAC(nil, mac)); got != "02:00:5e:00:00:01" {
		t.Errorf("AppendMAC = %q", got)
	}
}
