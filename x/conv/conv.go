// Package conv appends numbers to byte slices without fmt or strconv, for
// log lines built in fixed buffers.
package conv

const hexd = "0123456789abcdef"

// AppendUint appends the base-10 form of n.
func AppendUint(b []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(b, tmp[i:]...)
}

// AppendInt appends the base-10 form of n.
func AppendInt(b []byte, n int64) []byte {
	if n < 0 {
		return AppendUint(append(b, '-'), uint64(-n))
	}
	return AppendUint(b, uint64(n))
}

// AppendHex appends the low digits nibbles of v, zero-padded, lowercase,
// without a prefix.
func AppendHex(b []byte, v uint64, digits int) []byte {
	for i := digits - 1; i >= 0; i-- {
		b = append(b, hexd[(v>>(uint(i)*4))&0xF])
	}
	return b
}

// AppendMAC appends a colon-separated hardware address.
func AppendMAC(b []byte, mac []byte) []byte {
	for i, v := range mac {
		if i > 0 {
			b = append(b, ':')
		}
		b = AppendHex(b, uint64(v), 2)
	}
	return b
}
