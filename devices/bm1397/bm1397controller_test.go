package bm1397

import (
	"bytes"
	"context"
	"encoding/hex"
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/devices/base"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	"github.com/fernandosanchezjr/goaxeminer/devices/link"
	"github.com/fernandosanchezjr/goaxeminer/statistics"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	protocol2 "github.com/fernandosanchezjr/goaxeminer/stratum/protocol"
	"github.com/stretchr/testify/require"
	"sync/atomic"
	"testing"
	"time"
)

const (
	readAddressHex = "55aa520500000a"
	chipIdHex      = "aa5513971800000006"
	mask256Hex     = "55aa51090014000000ff08"
	pll500Hex      = "55aa51090008406401150e"
	knownReplyHex  = "aa554074bf03000595"
)

func testChip() config.Chip {
	chip := config.Chip{Frequency: 485, ChipCount: 1, Midstates: 4}
	chip.SetDefaults()
	return chip
}

func mustDecode(t *testing.T, s string) []byte {
	data, err := hex.DecodeString(s)
	require.NoError(t, err)
	return data
}

// chipResponder answers address reads like a single chip and, when answerJobs is set, the first
// job frame with one nonce.
func chipResponder(t *testing.T, answerJobs bool) func(frame []byte) []byte {
	readAddress := mustDecode(t, readAddressHex)
	chipId := mustDecode(t, chipIdHex)
	var answered int32
	return func(frame []byte) []byte {
		if bytes.Equal(frame, readAddress) {
			return chipId
		}
		if answerJobs && protocol.Header(frame[2]) == protocol.JobHeader && atomic.CompareAndSwapInt32(&answered, 0, 1) {
			resp := protocol.NonceResponse{Nonce: 0x0374bf40, JobId: frame[4], Checksum: protocol.ResponseJob}
			data, _ := resp.MarshalBinary()
			return data
		}
		return nil
	}
}

func newTestController(t *testing.T, answerJobs bool) (*BM1397Controller, *link.TestPort, *statistics.Statistics) {
	port := link.NewTestPort()
	port.Responder = chipResponder(t, answerJobs)
	stats := statistics.NewStatistics()
	chip := testChip()
	bm := NewBM1397Controller("test", link.NewChipLink("test", port, chip.WriteTimeout), chip, stats)
	return bm, port, stats
}

func containsFrame(frames [][]byte, frame []byte) bool {
	for _, f := range frames {
		if bytes.Equal(f, frame) {
			return true
		}
	}
	return false
}

func TestBM1397Controller_Reset(t *testing.T) {
	bm, port, _ := newTestController(t, false)
	defer bm.Close()
	require.NoError(t, bm.Reset(context.Background()))
	require.Equal(t, 1, bm.ChipCount())
	require.Equal(t, 485.0, bm.Frequency())
	require.Equal(t, "325.92 GH/s", bm.HashRate().String())
	require.InDelta(t, float64(13178*time.Microsecond), float64(bm.FullscanDuration()), float64(time.Millisecond))

	frames := port.Frames()
	require.Equal(t, readAddressHex, hex.EncodeToString(frames[0]))
	require.Equal(t, "55aa5305000003", hex.EncodeToString(frames[1]))
	require.Equal(t, "55aa400500001c", hex.EncodeToString(frames[2]))
	require.Equal(t, mask256Hex, hex.EncodeToString(frames[len(frames)-1]))
	require.Equal(t, uint64(256), bm.builder.MaskDifficulty())
}

func TestBM1397Controller_ResetMissingChips(t *testing.T) {
	port := link.NewTestPort()
	chip := testChip()
	bm := NewBM1397Controller("test", link.NewChipLink("test", port, chip.WriteTimeout), chip, nil)
	defer bm.Close()
	require.ErrorIs(t, bm.Reset(context.Background()), ErrChipCount)
	require.Len(t, port.Frames(), 1)
}

func TestBM1397Controller_ResetWriteFailure(t *testing.T) {
	bm, port, _ := newTestController(t, false)
	defer bm.Close()
	bm.link.Backoff = time.Millisecond
	port.FailWrites = 1
	require.Error(t, bm.Reset(context.Background()))
}

func TestBM1397Controller_Pipeline(t *testing.T) {
	bm, port, stats := newTestController(t, true)
	defer bm.Close()
	require.NoError(t, bm.Reset(context.Background()))
	bm.Start()

	work := testWork(t)
	work.Difficulty = 1e-12
	bm.UpdateWork(work)

	var submit *protocol2.Submit
	select {
	case submit = <-work.SubmitChan:
	case <-time.After(5 * time.Second):
		t.Fatal("no submission")
	}
	require.Equal(t, "670b4c525", submit.JobId())
	require.Equal(t, "0374bf40", submit.Params[4])
	require.Len(t, submit.Params, 6)
	select {
	case extra := <-work.SubmitChan:
		t.Fatal("unexpected submission", extra.Params)
	case <-time.After(100 * time.Millisecond):
	}
	require.Eventually(t, func() bool {
		return stats.Snapshot().Shares == 1
	}, time.Second, 10*time.Millisecond)
	require.True(t, containsFrame(port.Frames(), mustDecode(t, "55aa51090014000000001c")))
	require.Equal(t, uint64(1), bm.builder.MaskDifficulty())
}

func TestBM1397Controller_MalformedWork(t *testing.T) {
	bm, _, stats := newTestController(t, false)
	defer bm.Close()
	require.NoError(t, bm.Reset(context.Background()))
	bm.Start()
	work := testWork(t)
	work.MerkleBranches = [][]byte{{0x01, 0x02}}
	bm.UpdateWork(work)
	require.Eventually(t, func() bool {
		return stats.Snapshot().MalformedWork == 1
	}, time.Second, 10*time.Millisecond)
}

// startWithKnownJob parks the known header in slot 5 and feeds the chip reply for
// its nonce through the read loop. No work is queued, so nothing overwrites the slot.
func startWithKnownJob(t *testing.T, poolDifficulty float64) (*BM1397Controller, *base.PendingJob, *statistics.Statistics) {
	bm, port, stats := newTestController(t, false)
	require.NoError(t, bm.Reset(context.Background()))
	job := knownPendingJob(t, poolDifficulty, 0x171007ea)
	job.SubmitChan = make(stratum.SubmitChan, 4)
	bm.table.Store(knownJobId, job)
	bm.Start()
	port.Inject(mustDecode(t, knownReplyHex))
	return bm, job, stats
}

func TestBM1397Controller_KnownShare(t *testing.T) {
	bm, job, stats := startWithKnownJob(t, 1)
	defer bm.Close()
	var submit *protocol2.Submit
	select {
	case submit = <-job.SubmitChan:
	case <-time.After(5 * time.Second):
		t.Fatal("no submission")
	}
	require.Equal(t, "job", submit.JobId())
	require.Equal(t, "03bf7440", submit.Params[4])
	require.InDelta(t, 3.6087, float64(submit.Difficulty), 0.001)
	select {
	case extra := <-job.SubmitChan:
		t.Fatal("unexpected submission", extra.Params)
	case <-time.After(100 * time.Millisecond):
	}
	snapshot := stats.Snapshot()
	require.Equal(t, uint64(1), snapshot.Shares)
	require.Equal(t, uint64(0), snapshot.LowDifficulty)
	require.Equal(t, uint64(0), snapshot.Unmatched)
}

func TestBM1397Controller_KnownLowDifficulty(t *testing.T) {
	bm, job, stats := startWithKnownJob(t, 4)
	defer bm.Close()
	require.Eventually(t, func() bool {
		return stats.Snapshot().LowDifficulty == 1
	}, 5*time.Second, 10*time.Millisecond)
	select {
	case submit := <-job.SubmitChan:
		t.Fatal("low difficulty result submitted", submit.Params)
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, uint64(0), stats.Snapshot().Shares)
}

func TestBM1397Controller_SetFrequency(t *testing.T) {
	bm, port, _ := newTestController(t, false)
	defer bm.Close()
	require.Equal(t, ErrNotStarted, bm.SetFrequency(context.Background(), 500))
	require.NoError(t, bm.Reset(context.Background()))
	bm.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bm.SetFrequency(ctx, 500))
	require.Equal(t, 500.0, bm.Frequency())
	require.True(t, containsFrame(port.Frames(), mustDecode(t, pll500Hex)))
	require.Equal(t, 1, port.FlushCount())
	require.Eventually(t, func() bool {
		return atomic.LoadUint32(&bm.resync) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBM1397Controller_UpdateWorkKeepsCleanJobs(t *testing.T) {
	bm, _, _ := newTestController(t, false)
	defer bm.Close()
	first := testWork(t)
	first.CleanJobs = true
	second := testWork(t)
	bm.UpdateWork(first)
	bm.UpdateWork(second)
	queued := <-bm.workChan
	require.True(t, queued.CleanJobs)
	require.False(t, second.CleanJobs)
}
