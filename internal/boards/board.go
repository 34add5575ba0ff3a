package boards

import "bringup-go/internal/core"

// Board describes what the SoC can do (controllers present, GPIO range).
// It must not include wiring choices (pins) or operating parameters (clock rates).
type Board struct {
	Name             string
	GPIOMin, GPIOMax int

	// Number of I²C controllers; ids are 0..I2C-1.
	I2C int
	// TimerGroups present; ids are 0..TimerGroups-1.
	TimerGroups int
	Radio       bool
}

// HasPin reports whether n is a GPIO on this board.
func (b Board) HasPin(n int) bool { return n >= b.GPIOMin && n <= b.GPIOMax }

// Describe builds a descriptor from a live board.
func Describe(b core.Board) Board {
	lo, hi := b.GPIORange()
	_, radio := b.Radio()
	groups := 0
	for {
		if _, ok := b.Timer(groups); !ok {
			break
		}
		groups++
	}
	return Board{
		Name:        b.Name(),
		GPIOMin:     lo,
		GPIOMax:     hi,
		I2C:         2,
		TimerGroups: groups,
		Radio:       radio,
	}
}
