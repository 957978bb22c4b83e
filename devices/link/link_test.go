package link

import (
	"context"
	"encoding/hex"
	"errors"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	"github.com/stretchr/testify/require"
	"sync/atomic"
	"testing"
	"time"
)

// slowPort delays every write and records how many writes ran at once.
type slowPort struct {
	*TestPort
	delay   time.Duration
	active  int32
	maxSeen int32
	writes  int32
}

func (sp *slowPort) Write(p []byte) (int, error) {
	active := atomic.AddInt32(&sp.active, 1)
	defer atomic.AddInt32(&sp.active, -1)
	for {
		seen := atomic.LoadInt32(&sp.maxSeen)
		if active <= seen || atomic.CompareAndSwapInt32(&sp.maxSeen, seen, active) {
			break
		}
	}
	atomic.AddInt32(&sp.writes, 1)
	time.Sleep(sp.delay)
	return sp.TestPort.Write(p)
}

func TestChipLink_Run(t *testing.T) {
	port := NewTestPort()
	cl := NewChipLink("test", port, time.Second)
	steps := protocol.InitSteps(protocol.ChipAddresses(1, 0), protocol.SolveFrequency(485))
	start := time.Now()
	require.NoError(t, cl.Run(context.Background(), steps))
	require.GreaterOrEqual(t, int64(time.Since(start)), int64(protocol.SleepTime))

	var expected int
	for _, step := range steps {
		if step.Frame != nil {
			expected++
		}
	}
	frames := port.Frames()
	require.Len(t, frames, expected)
	if hex.EncodeToString(frames[0]) != "55aa5305000003" {
		t.Fatal(hex.EncodeToString(frames[0]))
	}
}

func TestChipLink_Retry(t *testing.T) {
	port := NewTestPort()
	port.FailWrites = 2
	cl := NewChipLink("test", port, time.Second)
	step := protocol.CommandStep("chain inactive", protocol.NewChainInactive(), 0)
	require.NoError(t, cl.Run(context.Background(), []protocol.Step{step}))
	require.Len(t, port.Frames(), 1)
	require.Equal(t, uint64(2), cl.WriteErrors())
}

func TestChipLink_RetryExhausted(t *testing.T) {
	port := NewTestPort()
	port.FailWrites = 3
	cl := NewChipLink("test", port, time.Second)
	step := protocol.CommandStep("chain inactive", protocol.NewChainInactive(), 0)
	err := cl.Run(context.Background(), []protocol.Step{step})
	require.True(t, errors.Is(err, ErrTestWrite))
	require.Contains(t, err.Error(), "chain inactive")
	require.Empty(t, port.Frames())
}

func TestChipLink_WriteTimeout(t *testing.T) {
	port := NewTestPort()
	port.BlockWrites = true
	defer port.Close()
	cl := NewChipLink("test", port, 20*time.Millisecond)
	data, _ := protocol.NewChainInactive().MarshalBinary()
	require.True(t, errors.Is(cl.Send(data), ErrWriteTimeout))
}

func TestChipLink_Cancelled(t *testing.T) {
	port := NewTestPort()
	cl := NewChipLink("test", port, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cl.Run(ctx, []protocol.Step{protocol.WaitStep("settle", time.Second)})
	require.True(t, errors.Is(err, context.Canceled))
}

func TestChipLink_Read(t *testing.T) {
	port := NewTestPort()
	cl := NewChipLink("test", port, time.Second)
	var buf [16]byte
	n, err := cl.Read(buf[:])
	require.NoError(t, err)
	require.Equal(t, 0, n)
	port.Inject([]byte{0xAA, 0x55})
	n, err = cl.Read(buf[:])
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, cl.SetBaudRate(protocol.MaxBaudRate))
	require.Equal(t, protocol.MaxBaudRate, port.BaudRate)
}

func TestChipLink_TimedOutWriteKeepsPort(t *testing.T) {
	port := &slowPort{TestPort: NewTestPort(), delay: 50 * time.Millisecond}
	cl := NewChipLink("test", port, 10*time.Millisecond)
	data, _ := protocol.NewChainInactive().MarshalBinary()
	for i := 0; i < 3; i++ {
		require.True(t, errors.Is(cl.Send(data), ErrWriteTimeout))
	}
	time.Sleep(150 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&port.maxSeen))
	require.Less(t, atomic.LoadInt32(&port.writes), int32(3))
	require.Equal(t, uint64(3), cl.WriteErrors())
}
