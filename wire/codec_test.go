package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStringRoundTrip(t *testing.T) {
	r := Succeed("7", "1")
	assert.Equal(t, ">SUCC;7;1", r.String())

	f := Failf(UnknownAction, "foobar", "Invalid action name.")
	assert.Equal(t, ">FAIL~UNKACT;foobar;Invalid action name.", f.String())
}

func TestEncodeParseRoundTrip(t *testing.T) {
	m := NewMessage("getreg")
	m.Add(Succeed("output", "0x0000FFFF"))
	m.Add(Failf(UnknownReg, "bogus", "unknown register"))

	body := m.Encode()
	got := Parse(body)

	require.Equal(t, m.Op, got.Op)
	require.Len(t, got.Records, 2)
	assert.Equal(t, m.Records[0], got.Records[0])
	assert.Equal(t, m.Records[1], got.Records[1])
}

func TestParseIgnoresUnrecognizedLines(t *testing.T) {
	body := "garbage\nop:action\nnot a record\n>SUCC;terminate;Exiting...\nalso ignored\n"
	m := Parse(body)
	assert.Equal(t, "action", m.Op)
	require.Len(t, m.Records, 1)
	assert.Equal(t, Succeed("terminate", "Exiting..."), m.Records[0])
}

func TestParseStopsAtMaxRecords(t *testing.T) {
	m := NewMessage("getreg")
	for i := 0; i < MaxRecords+5; i++ {
		m.Add(Succeed("k", "v"))
	}
	assert.Len(t, m.Records, MaxRecords)

	got := Parse(m.Encode())
	assert.Len(t, got.Records, MaxRecords)
}

func TestParseS3UnknownAction(t *testing.T) {
	m := NewMessage("action")
	m.Add(Failf(UnknownAction, "foobar", "Invalid action name."))
	body := m.Encode()
	assert.Equal(t, "op:action\n>FAIL~UNKACT;foobar;Invalid action name.\n", body)
}

func TestValue(t *testing.T) {
	n, ok := Value("7")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = Value("nope")
	assert.False(t, ok)
}
