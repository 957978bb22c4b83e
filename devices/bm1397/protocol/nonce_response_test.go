package protocol

import (
	"encoding/hex"
	"errors"
	"github.com/stretchr/testify/require"
	"testing"
)

const (
	nonceResponseHex = "aa5540bf740300059b"
	chipIdHex        = "aa5513971800000006"
)

func TestNonceResponse_Unmarshal(t *testing.T) {
	data, _ := hex.DecodeString(nonceResponseHex)
	var resp NonceResponse
	require.NoError(t, resp.UnmarshalBinary(data))
	require.Equal(t, uint32(0x0374bf40), resp.Nonce)
	require.Equal(t, byte(0), resp.MidstateIndex)
	require.Equal(t, byte(5), resp.JobId)
	require.True(t, resp.IsJob())

	encoded, _ := resp.MarshalBinary()
	if hex.EncodeToString(encoded) != nonceResponseHex {
		t.Fatal(hex.EncodeToString(encoded))
	}
}

func TestNonceResponse_ChipId(t *testing.T) {
	data, _ := hex.DecodeString(chipIdHex)
	var resp NonceResponse
	require.NoError(t, resp.UnmarshalBinary(data))
	require.False(t, resp.IsJob())
	require.Equal(t, uint16(ChipId), resp.ChipId())
}

func TestNonceResponse_Corrupt(t *testing.T) {
	data, _ := hex.DecodeString(nonceResponseHex)
	var resp NonceResponse
	for i := 2; i < 8; i++ {
		for bit := uint(0); bit < 8; bit++ {
			data[i] ^= 1 << bit
			require.True(t, errors.Is(resp.UnmarshalBinary(data), ErrBadChecksum))
			data[i] ^= 1 << bit
		}
	}
	// the job flag is covered by the checksum
	data[8] ^= ResponseJob
	require.True(t, errors.Is(resp.UnmarshalBinary(data), ErrBadChecksum))
	data[8] ^= ResponseJob
	require.True(t, errors.Is(resp.UnmarshalBinary(data[:8]), ErrResponseLen))
}

func TestNonceResponse_MarshalChipId(t *testing.T) {
	resp := NonceResponse{Nonce: 0x00189713}
	encoded, _ := resp.MarshalBinary()
	if hex.EncodeToString(encoded) != chipIdHex {
		t.Fatal(hex.EncodeToString(encoded))
	}
}
