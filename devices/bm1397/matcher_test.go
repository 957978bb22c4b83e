package bm1397

import (
	"encoding/hex"
	"github.com/fernandosanchezjr/goaxeminer/devices/base"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"github.com/stretchr/testify/require"
	"testing"
)

const (
	knownHeader = "20000000b6699ea6706da26c88377183fe0a7163a88bb48f0009dbd20000000000000000e700fd569127d4e2b68c794f7a4ee7435e9f88020ae566421009b90eda7715bf5f4db22c171007ea03bf7440"
	knownHash   = "0000000046f016c18a28475a5ac2daa435583156184f7b9089f44fbbb46504e1"
	knownNonce  = 0x03bf7440
	knownJobId  = 5
)

func knownPendingJob(t *testing.T, poolDifficulty float64, nbits uint32) *base.PendingJob {
	header, err := hex.DecodeString(knownHeader)
	require.NoError(t, err)
	utils.SwapUint32Bytes(header)
	job := &base.PendingJob{
		JobId:          "job",
		ExtraNonce2:    []byte{0, 0, 0, 1},
		NTime:          0x5f4db22c,
		NBits:          utils.NBits(nbits),
		Versions:       []utils.Version{0x20000000},
		PoolDifficulty: poolDifficulty,
		PoolTarget:     utils.DifficultyTarget(poolDifficulty),
		NetworkTarget:  utils.NetworkTarget(nbits),
		MaskDifficulty: 1,
	}
	copy(job.Header[:], header)
	copy(job.Header[76:], []byte{0, 0, 0, 0})
	return job
}

func matchKnown(t *testing.T, job *base.PendingJob, resp protocol.NonceResponse) *Match {
	table := base.NewPendingJobTable()
	table.Store(knownJobId, job)
	rm := NewResultMatcher(table)
	defer rm.Close()
	return rm.Match(resp)
}

func knownResponse() protocol.NonceResponse {
	return protocol.NonceResponse{Nonce: knownNonce, JobId: knownJobId, Checksum: protocol.ResponseJob}
}

func TestResultMatcher_Share(t *testing.T) {
	match := matchKnown(t, knownPendingJob(t, 1, 0x171007ea), knownResponse())
	require.Equal(t, Share, match.Class)
	require.True(t, match.Submittable())
	if utils.HashString(match.Result.Hash) != knownHash {
		t.Fatal(utils.HashString(match.Result.Hash))
	}
	submit := match.Result.Submit()
	require.Equal(t, "job", submit.JobId())
	require.Equal(t, "03bf7440", submit.Params[4])
}

func TestResultMatcher_LowDifficulty(t *testing.T) {
	match := matchKnown(t, knownPendingJob(t, 4, 0x171007ea), knownResponse())
	require.Equal(t, LowDifficulty, match.Class)
	require.False(t, match.Submittable())
	require.NotNil(t, match.Result)
}

func TestResultMatcher_Block(t *testing.T) {
	match := matchKnown(t, knownPendingJob(t, 1, 0x1d00ffff), knownResponse())
	require.Equal(t, Block, match.Class)
	require.True(t, match.Submittable())
}

func TestResultMatcher_Unmatched(t *testing.T) {
	resp := knownResponse()
	resp.JobId = knownJobId + 1
	require.Equal(t, Unmatched, matchKnown(t, knownPendingJob(t, 1, 0x171007ea), resp).Class)

	resp = knownResponse()
	resp.MidstateIndex = 1
	match := matchKnown(t, knownPendingJob(t, 1, 0x171007ea), resp)
	require.Equal(t, Unmatched, match.Class)
	require.Nil(t, match.Result)
}

func TestResultMatcher_Invalidated(t *testing.T) {
	table := base.NewPendingJobTable()
	table.Store(knownJobId, knownPendingJob(t, 1, 0x171007ea))
	rm := NewResultMatcher(table)
	defer rm.Close()
	table.Invalidate()
	require.Equal(t, Unmatched, rm.Match(knownResponse()).Class)
}

func TestResultMatcher_Duplicate(t *testing.T) {
	table := base.NewPendingJobTable()
	table.Store(knownJobId, knownPendingJob(t, 1, 0x171007ea))
	rm := NewResultMatcher(table)
	defer rm.Close()
	require.Equal(t, Share, rm.Match(knownResponse()).Class)
	require.Equal(t, Duplicate, rm.Match(knownResponse()).Class)
	other := knownResponse()
	other.Nonce += 1
	require.NotEqual(t, Duplicate, rm.Match(other).Class)
}
