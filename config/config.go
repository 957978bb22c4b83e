package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	TransportSerial = "serial"
	TransportFTDI   = "ftdi"

	DefaultPort          = "/dev/ttyUSB0"
	DefaultBaudRate      = 115200
	DefaultFTDIVendor    = 0x0403
	DefaultFTDIProduct   = 0x6015
	DefaultFrequency     = 425.0
	DefaultChipCount     = 1
	DefaultMidstates     = 4
	DefaultDifficulty    = 256
	DefaultWriteTimeout  = time.Second
	DefaultStatsSchedule = "@every 1m"
)

var ErrNoPools = errors.New("no pools configured")

type Config struct {
	Pools         []Pool  `yaml:"pools"`
	Chip          Chip    `yaml:"chip"`
	Storage       Storage `yaml:"storage"`
	StatsSchedule string  `yaml:"stats_schedule,omitempty"`
}

type Pool struct {
	URL                 string  `yaml:"url"`
	User                string  `yaml:"user"`
	Pass                string  `yaml:"pass"`
	SuggestedDifficulty float64 `yaml:"suggested_difficulty,omitempty"`
}

func (p Pool) String() string {
	return fmt.Sprint(p.User, "@", p.URL)
}

type Chip struct {
	Transport       string        `yaml:"transport,omitempty"`
	Port            string        `yaml:"port,omitempty"`
	BaudRate        int           `yaml:"baud_rate,omitempty"`
	MaxBaud         bool          `yaml:"max_baud,omitempty"`
	FTDIVendor      int           `yaml:"ftdi_vendor,omitempty"`
	FTDIProduct     int           `yaml:"ftdi_product,omitempty"`
	Frequency       float64       `yaml:"frequency,omitempty"`
	ChipCount       int           `yaml:"chip_count,omitempty"`
	AddressInterval int           `yaml:"address_interval,omitempty"`
	Midstates       int           `yaml:"midstates,omitempty"`
	Difficulty      uint64        `yaml:"difficulty,omitempty"`
	ReverseMaskBits bool          `yaml:"reverse_mask_bits,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	Reset           PowerControl  `yaml:"reset,omitempty"`
}

type Storage struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// SetDefaults fills every unset field with its default value.
func (c *Config) SetDefaults() {
	if c.StatsSchedule == "" {
		c.StatsSchedule = DefaultStatsSchedule
	}
	c.Chip.SetDefaults()
}

func (c *Chip) SetDefaults() {
	if c.Transport == "" {
		c.Transport = TransportSerial
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.FTDIVendor == 0 {
		c.FTDIVendor = DefaultFTDIVendor
	}
	if c.FTDIProduct == 0 {
		c.FTDIProduct = DefaultFTDIProduct
	}
	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	}
	if c.ChipCount == 0 {
		c.ChipCount = DefaultChipCount
	}
	if c.Midstates == 0 {
		c.Midstates = DefaultMidstates
	}
	if c.Difficulty == 0 {
		c.Difficulty = DefaultDifficulty
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

func (c *Config) Validate() error {
	if len(c.Pools) == 0 {
		return ErrNoPools
	}
	for i, pool := range c.Pools {
		if pool.URL == "" {
			return fmt.Errorf("pool %d: missing url", i)
		}
	}
	if err := c.Chip.Validate(); err != nil {
		return fmt.Errorf("chip: %w", err)
	}
	return nil
}

func (c *Chip) Validate() error {
	switch c.Transport {
	case TransportSerial, TransportFTDI:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Midstates {
	case 1, 2, 4:
	default:
		return fmt.Errorf("midstates must be 1, 2 or 4, got %d", c.Midstates)
	}
	if c.ChipCount < 1 || c.ChipCount > 256 {
		return fmt.Errorf("invalid chip count %d", c.ChipCount)
	}
	if c.AddressInterval < 0 || c.AddressInterval*(c.ChipCount-1) > 0xff {
		return fmt.Errorf("address interval %d does not fit %d chips", c.AddressInterval, c.ChipCount)
	}
	return nil
}
