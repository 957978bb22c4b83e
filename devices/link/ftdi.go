package link

import (
	"github.com/ziutek/ftdi"
	"time"
)

const ftdiPollInterval = 5 * time.Millisecond

type ftdiPort struct {
	device *ftdi.Device
}

// OpenFTDI opens the first FTDI bridge matching vendor and product as an 8N1 UART.
func OpenFTDI(vendor, product int, baudRate int) (Port, error) {
	device, err := ftdi.OpenFirst(vendor, product, ftdi.ChannelAny)
	if err != nil {
		return nil, err
	}
	fp := &ftdiPort{device: device}
	if err := fp.setup(baudRate); err != nil {
		_ = device.Close()
		return nil, err
	}
	return fp, nil
}

func (fp *ftdiPort) setup(baudRate int) error {
	if err := fp.device.Reset(); err != nil {
		return err
	}
	if err := fp.device.SetLineProperties2(ftdi.DataBits8, ftdi.StopBits1, ftdi.ParityNone, ftdi.BreakOff); err != nil {
		return err
	}
	if err := fp.device.SetBaudrate(baudRate); err != nil {
		return err
	}
	if err := fp.device.SetFlowControl(ftdi.FlowCtrlDisable); err != nil {
		return err
	}
	if err := fp.device.SetLatencyTimer(1); err != nil {
		return err
	}
	return fp.Flush()
}

func (fp *ftdiPort) Read(p []byte) (int, error) {
	n, err := fp.device.Read(p)
	if err == nil && n == 0 {
		time.Sleep(ftdiPollInterval)
	}
	return n, err
}

func (fp *ftdiPort) Write(p []byte) (int, error) {
	return fp.device.Write(p)
}

func (fp *ftdiPort) SetBaudRate(baudRate int) error {
	return fp.device.SetBaudrate(baudRate)
}

func (fp *ftdiPort) Flush() error {
	if err := fp.device.PurgeWriteBuffer(); err != nil {
		return err
	}
	return fp.device.PurgeReadBuffer()
}

func (fp *ftdiPort) Close() error {
	return fp.device.Close()
}
