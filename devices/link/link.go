package link

import (
	"context"
	"errors"
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	log "github.com/sirupsen/logrus"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultWriteTimeout = time.Second
	DefaultRetries      = 3
	DefaultBackoff      = 10 * time.Millisecond
)

var (
	ErrWriteTimeout = errors.New("write timeout")
	ErrShortWrite   = errors.New("short write")
)

// Port is a byte channel to the chip. Reads must return periodically even without data.
type Port interface {
	io.ReadWriteCloser
	SetBaudRate(baudRate int) error
	Flush() error
}

// ChipLink serializes writes to a Port and executes timed command sequences on it.
type ChipLink struct {
	port         Port
	name         string
	writeTimeout time.Duration
	writeMu      sync.Mutex
	inflight     chan error
	writeErrors  uint64
	Retries      int
	Backoff      time.Duration
}

func NewChipLink(name string, port Port, writeTimeout time.Duration) *ChipLink {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &ChipLink{
		port:         port,
		name:         name,
		writeTimeout: writeTimeout,
		Retries:      DefaultRetries,
		Backoff:      DefaultBackoff,
	}
}

func (cl *ChipLink) String() string {
	return cl.name
}

// Send writes one frame, giving up after the write timeout. A write that timed out
// still owns the port: later calls wait up to the write timeout for it to finish and
// fail with ErrWriteTimeout while it is still running.
func (cl *ChipLink) Send(data []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	timer := time.NewTimer(cl.writeTimeout)
	defer timer.Stop()
	if err := cl.awaitInflight(timer.C); err != nil {
		atomic.AddUint64(&cl.writeErrors, 1)
		return err
	}
	frame := append([]byte{}, data...)
	done := make(chan error, 1)
	go func() {
		written, err := cl.port.Write(frame)
		if err == nil && written != len(frame) {
			err = ErrShortWrite
		}
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			atomic.AddUint64(&cl.writeErrors, 1)
		}
		return err
	case <-timer.C:
		cl.inflight = done
		atomic.AddUint64(&cl.writeErrors, 1)
		return ErrWriteTimeout
	}
}

// awaitInflight waits for a write abandoned by an earlier Send. Callers hold writeMu.
func (cl *ChipLink) awaitInflight(deadline <-chan time.Time) error {
	if cl.inflight == nil {
		return nil
	}
	select {
	case <-cl.inflight:
		cl.inflight = nil
		return nil
	case <-deadline:
		return ErrWriteTimeout
	}
}

// Run executes steps in order. Each write is retried with a doubling back-off before
// the sequence fails with the name of the failing step.
func (cl *ChipLink) Run(ctx context.Context, steps []protocol.Step) error {
	for _, step := range steps {
		if step.Frame != nil {
			if err := cl.sendWithRetry(ctx, step.Frame); err != nil {
				return fmt.Errorf("%s: %w", step.Name, err)
			}
		}
		if err := sleep(ctx, step.PostDelay); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

func (cl *ChipLink) sendWithRetry(ctx context.Context, frame []byte) error {
	var err error
	backoff := cl.Backoff
	for attempt := 0; attempt < cl.Retries; attempt++ {
		if err = cl.Send(frame); err == nil {
			return nil
		}
		log.WithFields(log.Fields{
			"link":    cl.name,
			"attempt": attempt + 1,
			"error":   err,
		}).Warnln("Write failed")
		if sleepErr := sleep(ctx, backoff); sleepErr != nil {
			return sleepErr
		}
		backoff *= 2
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Read returns whatever bytes arrived; zero bytes means the read interval elapsed.
func (cl *ChipLink) Read(buf []byte) (int, error) {
	return cl.port.Read(buf)
}

func (cl *ChipLink) Flush() error {
	return cl.port.Flush()
}

func (cl *ChipLink) SetBaudRate(baudRate int) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	timer := time.NewTimer(cl.writeTimeout)
	defer timer.Stop()
	if err := cl.awaitInflight(timer.C); err != nil {
		return err
	}
	return cl.port.SetBaudRate(baudRate)
}

func (cl *ChipLink) WriteErrors() uint64 {
	return atomic.LoadUint64(&cl.writeErrors)
}

func (cl *ChipLink) Close() error {
	return cl.port.Close()
}
