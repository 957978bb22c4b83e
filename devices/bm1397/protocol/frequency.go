package protocol

import (
	"fmt"
	"math"
	"time"
)

const (
	FrequencyStep    = 25.0
	MinFrequency     = 100.0
	MaxFrequency     = 800.0
	DefaultFrequency = 200.0
	PLLSettleDelay   = 10 * time.Millisecond

	faMin = 0x10
	faMax = 0xF0
)

var preFrequency = [4]byte{0x0F, 0x0F, 0x0F, 0x00}

var fallbackProgram = FrequencyProgram{
	Requested: DefaultFrequency,
	Frequency: DefaultFrequency,
	FA:        0xA0,
	FB:        0x02,
	FC1:       0x02,
	FC2:       0x05,
	Fallback:  true,
}

// FrequencyProgram holds the PLL0 multiplier and dividers for one hash clock.
type FrequencyProgram struct {
	Requested float64
	Frequency float64
	FA        byte
	FB        byte
	FC1       byte
	FC2       byte
	Fallback  bool
}

// SolveFrequency finds the PLL0 setting for frequency (MHz). Frequencies outside
// [MinFrequency, MaxFrequency] or without a valid multiplier yield the 200 MHz fallback.
func SolveFrequency(frequency float64) FrequencyProgram {
	if math.IsNaN(frequency) || frequency < MinFrequency || frequency > MaxFrequency {
		return fallback(frequency)
	}
	fb, fc1, fc2 := 2.0, 1.0, 5.0
	if frequency >= 500 {
		fb = 1
	} else if frequency <= 150 {
		fc1 = 3
	} else if frequency <= 250 {
		fc1 = 2
	}
	basef := FrequencyStep * math.Ceil(frequency*fb*fc1*fc2/FrequencyStep)
	fa := basef / FrequencyStep
	if fa < faMin || fa > faMax {
		return fallback(frequency)
	}
	return FrequencyProgram{
		Requested: frequency,
		Frequency: basef / (fb * fc1 * fc2),
		FA:        byte(fa),
		FB:        byte(fb),
		FC1:       byte(fc1),
		FC2:       byte(fc2),
	}
}

func fallback(requested float64) FrequencyProgram {
	fp := fallbackProgram
	fp.Requested = requested
	return fp
}

func (fp FrequencyProgram) Divider() int {
	return int(fp.FB) * int(fp.FC1) * int(fp.FC2)
}

// Register is the PLL0 parameter value.
func (fp FrequencyProgram) Register() [4]byte {
	return [4]byte{0x40, fp.FA, fp.FB, (fp.FC1&0xf)<<4 | fp.FC2&0xf}
}

// Steps writes the pre-frequency divider twice, then the PLL0 parameter twice, letting the PLL settle
// between writes.
func (fp FrequencyProgram) Steps() []Step {
	steps := []Step{WaitStep("pll settle", PLLSettleDelay)}
	for i := 0; i < 2; i++ {
		steps = append(steps, CommandStep("pll0 divider", NewWriteRegister(RegPLL0Divider, preFrequency),
			PLLSettleDelay))
	}
	for i := 0; i < 2; i++ {
		steps = append(steps, CommandStep("pll0 parameter", NewWriteRegister(RegPLL0Parameter, fp.Register()),
			PLLSettleDelay))
	}
	return steps
}

func (fp FrequencyProgram) String() string {
	return fmt.Sprintf("%.2fMHz (fa=%d fb=%d fc1=%d fc2=%d)", fp.Frequency, fp.FA, fp.FB, fp.FC1, fp.FC2)
}
