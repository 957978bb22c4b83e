package config

import "time"

const DefaultResetPulse = 100 * time.Millisecond

// PowerControl describes the GPIO line wired to the chip reset input.
type PowerControl struct {
	Enabled bool          `yaml:"enabled,omitempty"`
	Pin     int           `yaml:"pin,omitempty"`
	Pulse   time.Duration `yaml:"pulse,omitempty"`
}

func (pc PowerControl) PulseDuration() time.Duration {
	if pc.Pulse <= 0 {
		return DefaultResetPulse
	}
	return pc.Pulse
}
