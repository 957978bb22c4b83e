package link

import (
	"github.com/jacobsa/go-serial/serial"
	"io"
	"sync"
	"time"
)

const (
	SerialReadTimeout = 100 * time.Millisecond
	flushLimit        = 64
)

type serialPort struct {
	mtx     sync.RWMutex
	options serial.OpenOptions
	port    io.ReadWriteCloser
}

// OpenSerial opens a UART device with 8N1 framing and a bounded read interval.
func OpenSerial(portName string, baudRate int) (Port, error) {
	sp := &serialPort{options: serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(SerialReadTimeout / time.Millisecond),
	}}
	port, err := serial.Open(sp.options)
	if err != nil {
		return nil, err
	}
	sp.port = port
	return sp, nil
}

func (sp *serialPort) Read(p []byte) (int, error) {
	sp.mtx.RLock()
	defer sp.mtx.RUnlock()
	n, err := sp.port.Read(p)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (sp *serialPort) Write(p []byte) (int, error) {
	sp.mtx.RLock()
	defer sp.mtx.RUnlock()
	return sp.port.Write(p)
}

// SetBaudRate reopens the device at the new rate.
func (sp *serialPort) SetBaudRate(baudRate int) error {
	sp.mtx.Lock()
	defer sp.mtx.Unlock()
	if err := sp.port.Close(); err != nil {
		return err
	}
	sp.options.BaudRate = uint(baudRate)
	port, err := serial.Open(sp.options)
	if err != nil {
		return err
	}
	sp.port = port
	return nil
}

// Flush drains pending input until a read interval passes without data.
func (sp *serialPort) Flush() error {
	var buf [256]byte
	for i := 0; i < flushLimit; i++ {
		n, err := sp.Read(buf[:])
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func (sp *serialPort) Close() error {
	sp.mtx.Lock()
	defer sp.mtx.Unlock()
	return sp.port.Close()
}
