package link

import (
	"context"
	"github.com/stianeikeland/go-rpio/v4"
	"time"
)

// GPIOReset pulses the chip reset line low, then releases it.
func GPIOReset(ctx context.Context, pin int, pulse time.Duration) error {
	if err := rpio.Open(); err != nil {
		return err
	}
	defer rpio.Close()
	resetPin := rpio.Pin(pin)
	resetPin.Output()
	resetPin.Low()
	if err := sleep(ctx, pulse); err != nil {
		return err
	}
	resetPin.High()
	return sleep(ctx, pulse)
}
