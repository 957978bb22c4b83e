package protocol

import (
	"encoding/hex"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestResponseParser_Resync(t *testing.T) {
	valid, _ := hex.DecodeString(nonceResponseHex)
	corrupt := append([]byte{}, valid...)
	corrupt[4] ^= 0x10
	var stream []byte
	stream = append(stream, 0x00, 0x13, 0xAA)
	stream = append(stream, corrupt...)
	stream = append(stream, valid...)
	stream = append(stream, 0xFF)

	parser := NewResponseParser()
	_, _ = parser.Write(stream)
	resp, ok := parser.Next()
	require.True(t, ok)
	require.Equal(t, byte(5), resp.JobId)
	_, ok = parser.Next()
	require.False(t, ok)
	require.Equal(t, uint64(1), parser.ChecksumErrors())
	require.Equal(t, 0, parser.Buffered())
}

func TestResponseParser_Split(t *testing.T) {
	valid, _ := hex.DecodeString(nonceResponseHex)
	parser := NewResponseParser()
	for i := range valid {
		_, _ = parser.Write(valid[i : i+1])
		_, ok := parser.Next()
		require.Equal(t, i == len(valid)-1, ok, "%d", i)
	}
}

func TestResponseParser_Sequence(t *testing.T) {
	first, _ := hex.DecodeString(nonceResponseHex)
	second, _ := hex.DecodeString(chipIdHex)
	parser := NewResponseParser()
	_, _ = parser.Write(append(append([]byte{}, first...), second...))
	resp, ok := parser.Next()
	require.True(t, ok)
	require.True(t, resp.IsJob())
	resp, ok = parser.Next()
	require.True(t, ok)
	require.Equal(t, uint16(ChipId), resp.ChipId())
	require.Equal(t, uint64(0), parser.Discarded())
}

func TestResponseParser_Reset(t *testing.T) {
	valid, _ := hex.DecodeString(nonceResponseHex)
	parser := NewResponseParser()
	_, _ = parser.Write(valid[:5])
	_, ok := parser.Next()
	require.False(t, ok)
	require.Equal(t, 5, parser.Reset())
	require.Equal(t, 0, parser.Buffered())
	_, _ = parser.Write(valid)
	resp, ok := parser.Next()
	require.True(t, ok)
	require.Equal(t, byte(5), resp.JobId)
	require.Equal(t, uint64(0), parser.ChecksumErrors())
}
