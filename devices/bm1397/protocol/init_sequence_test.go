package protocol

import (
	"encoding/hex"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestChipAddresses(t *testing.T) {
	require.Equal(t, []byte{0x00}, ChipAddresses(1, 0))
	require.Equal(t, []byte{0x00, 0x40, 0x80, 0xC0}, ChipAddresses(4, 0))
	require.Equal(t, []byte{0x00, 0x02, 0x04}, ChipAddresses(3, 2))
	require.Equal(t, 256, AddressInterval(0))
}

func TestInitSteps(t *testing.T) {
	steps := InitSteps(ChipAddresses(1, 0), SolveFrequency(500))
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name
	}
	require.Equal(t, []string{
		"settle", "chain inactive", "set address",
		"clock order control 0", "clock order control 1", "ordered clock enable",
		"core register control", "pll3 parameter", "pll3 parameter",
		"fast uart configuration", "misc control",
		"pll settle", "pll0 divider", "pll0 divider", "pll0 parameter", "pll0 parameter",
	}, names)
	require.Equal(t, SleepTime, steps[0].PostDelay)
	if hex.EncodeToString(steps[1].Frame) != "55aa5305000003" {
		t.Fatal(hex.EncodeToString(steps[1].Frame))
	}
	if hex.EncodeToString(steps[2].Frame) != "55aa400500001c" {
		t.Fatal(hex.EncodeToString(steps[2].Frame))
	}
	require.Nil(t, steps[11].Frame)
}
