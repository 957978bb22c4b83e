package link

import (
	"errors"
	"sync"
	"time"
)

const testReadInterval = 5 * time.Millisecond

var ErrTestWrite = errors.New("test write failure")

// TestPort is an in-memory Port recording every written frame. Responder, when set,
// may answer a frame with bytes that become readable.
type TestPort struct {
	mtx         sync.Mutex
	frames      [][]byte
	input       chan []byte
	pending     []byte
	closed      chan struct{}
	closeOnce   sync.Once
	BaudRate    int
	Flushes     int
	FailWrites  int
	BlockWrites bool
	Responder   func(frame []byte) []byte
}

func NewTestPort() *TestPort {
	return &TestPort{
		input:    make(chan []byte, 1024),
		closed:   make(chan struct{}),
		BaudRate: 115200,
	}
}

func (tp *TestPort) Read(p []byte) (int, error) {
	tp.mtx.Lock()
	if len(tp.pending) == 0 {
		tp.mtx.Unlock()
		select {
		case data := <-tp.input:
			tp.mtx.Lock()
			tp.pending = append(tp.pending, data...)
		case <-tp.closed:
			return 0, nil
		case <-time.After(testReadInterval):
			return 0, nil
		}
	}
	n := copy(p, tp.pending)
	tp.pending = tp.pending[n:]
	tp.mtx.Unlock()
	return n, nil
}

func (tp *TestPort) Write(p []byte) (int, error) {
	tp.mtx.Lock()
	if tp.FailWrites > 0 {
		tp.FailWrites -= 1
		tp.mtx.Unlock()
		return 0, ErrTestWrite
	}
	if tp.BlockWrites {
		tp.mtx.Unlock()
		<-tp.closed
		return 0, ErrTestWrite
	}
	frame := append([]byte{}, p...)
	tp.frames = append(tp.frames, frame)
	responder := tp.Responder
	tp.mtx.Unlock()
	if responder != nil {
		if response := responder(frame); response != nil {
			tp.Inject(response)
		}
	}
	return len(p), nil
}

// Inject makes data available to the next reads.
func (tp *TestPort) Inject(data []byte) {
	tp.input <- append([]byte{}, data...)
}

func (tp *TestPort) Frames() [][]byte {
	tp.mtx.Lock()
	defer tp.mtx.Unlock()
	return append([][]byte{}, tp.frames...)
}

func (tp *TestPort) SetBaudRate(baudRate int) error {
	tp.mtx.Lock()
	defer tp.mtx.Unlock()
	tp.BaudRate = baudRate
	return nil
}

func (tp *TestPort) Flush() error {
	tp.mtx.Lock()
	defer tp.mtx.Unlock()
	tp.Flushes += 1
	tp.pending = nil
	return nil
}

func (tp *TestPort) FlushCount() int {
	tp.mtx.Lock()
	defer tp.mtx.Unlock()
	return tp.Flushes
}

func (tp *TestPort) Close() error {
	tp.closeOnce.Do(func() { close(tp.closed) })
	return nil
}
