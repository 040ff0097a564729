package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetDefaults(t *testing.T) {
	b := NewBank()
	assert.Equal(t, uint32(0), b.Input)
	assert.Equal(t, uint32(0), b.Output)
	assert.Equal(t, uint32(0xFFFFFFFF), b.Config)
	assert.Equal(t, uint32(0), b.PWM)
	assert.Equal(t, uint32(0), b.Inten)
	assert.Equal(t, uint32(0), b.Int0)
	assert.Equal(t, uint32(0), b.Int1)
	assert.EqualValues(t, DefaultMinPin, b.MinPin)
	assert.EqualValues(t, DefaultMaxPin, b.MaxPin)
}

func TestReadWritePin(t *testing.T) {
	var word uint32
	WritePin(5, 1, &word)
	assert.Equal(t, uint8(1), ReadPin(5, word))
	assert.Equal(t, uint8(0), ReadPin(4, word))
	WritePin(5, 0, &word)
	assert.Equal(t, uint8(0), ReadPin(5, word))
	assert.Equal(t, uint32(0), word)
}

func TestRegRoundTrip(t *testing.T) {
	for _, w := range []uint32{0, 1, 0xFFFFFFFF, 0x0000FFFF, 0xDEADBEEF} {
		s := RegToStr(w)
		assert.Equal(t, w, StrToReg(s))
	}
	assert.Equal(t, "0x00000000", RegToStr(StrToReg("0x00000000")))
}

func TestStrToRegTolerant(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"0x1A", 0x1A},
		{"26", 26},
		{"0x0000FFFF", 0x0000FFFF},
		{"not-a-number", 0},
	}
	for _, c := range cases {
		require.Equal(t, c.want, StrToReg(c.in), "input %q", c.in)
	}
}

func TestGetReturnsPointerToNamedField(t *testing.T) {
	b := NewBank()
	p := b.Get(Output)
	require.NotNil(t, p)
	*p = 0x42
	assert.Equal(t, uint32(0x42), b.Output)

	assert.Nil(t, b.Get("bogus"))
}

func TestInRange(t *testing.T) {
	b := NewBank()
	assert.False(t, b.InRange(0))
	assert.False(t, b.InRange(1))
	assert.True(t, b.InRange(2))
	assert.True(t, b.InRange(27))
	assert.False(t, b.InRange(28))
	assert.False(t, b.InRange(100))
}

func TestSelector(t *testing.T) {
	b := NewBank()
	WritePin(5, 1, &b.Int1)
	WritePin(5, 1, &b.Int0)
	assert.Equal(t, TriggerRising, b.Selector(5))

	WritePin(6, 1, &b.Int1)
	assert.Equal(t, TriggerFalling, b.Selector(6))

	WritePin(7, 1, &b.Int0)
	assert.Equal(t, TriggerChange, b.Selector(7))

	assert.Equal(t, TriggerLow, b.Selector(8))
}
