package protocol

import "time"

const (
	SleepTime        = 20 * time.Millisecond
	AddressDelay     = 5 * time.Millisecond
	InitialBaudRate  = 115200
	MaxBaudRate      = 3125000
	MaxChipAddresses = 0x100
)

var (
	clockOrderControl0 = [4]byte{0x00, 0x00, 0x00, 0x00}
	clockOrderControl1 = [4]byte{0x00, 0x00, 0x00, 0x00}
	orderedClockEnable = [4]byte{0x00, 0x00, 0x00, 0x01}
	coreRegControl     = [4]byte{0x80, 0x00, 0x80, 0x74}
	pll3Parameter      = [4]byte{0xC0, 0x70, 0x01, 0x11}
	fastUARTConfig     = [4]byte{0x06, 0x00, 0x00, 0x0F}
	miscControl        = [4]byte{0x00, 0x00, 0x7A, 0x31}
	miscControlMaxBaud = [4]byte{0x00, 0x00, 0x70, 0x30}
)

// AddressInterval spreads chipCount addresses evenly over the address space.
func AddressInterval(chipCount int) int {
	if chipCount <= 0 {
		return MaxChipAddresses
	}
	return MaxChipAddresses / chipCount
}

// ChipAddresses assigns one address per chip starting at zero.
func ChipAddresses(chipCount int, interval int) []byte {
	if interval <= 0 {
		interval = AddressInterval(chipCount)
	}
	addresses := make([]byte, 0, chipCount)
	for i := 0; i < chipCount && i*interval < MaxChipAddresses; i++ {
		addresses = append(addresses, byte(i*interval))
	}
	return addresses
}

// InitSteps is the chain bring-up sequence followed by the hash clock program.
func InitSteps(addresses []byte, program FrequencyProgram) []Step {
	steps := []Step{
		WaitStep("settle", SleepTime),
		CommandStep("chain inactive", NewChainInactive(), AddressDelay),
	}
	for _, address := range addresses {
		steps = append(steps, CommandStep("set address", NewSetAddress(address), AddressDelay))
	}
	steps = append(steps,
		CommandStep("clock order control 0", NewWriteRegister(RegClockOrderControl0, clockOrderControl0), 0),
		CommandStep("clock order control 1", NewWriteRegister(RegClockOrderControl1, clockOrderControl1), 0),
		CommandStep("ordered clock enable", NewWriteRegister(RegOrderedClockEnable, orderedClockEnable), 0),
		CommandStep("core register control", NewWriteRegister(RegCoreRegControl, coreRegControl), 0),
		CommandStep("pll3 parameter", NewWriteRegister(RegPLL3Parameter, pll3Parameter), 0),
		CommandStep("pll3 parameter", NewWriteRegister(RegPLL3Parameter, pll3Parameter), 0),
		CommandStep("fast uart configuration", NewWriteRegister(RegFastUARTConfig, fastUARTConfig), 0),
		CommandStep("misc control", NewWriteRegister(RegMiscControl, miscControl), 0),
	)
	return append(steps, program.Steps()...)
}

func MaxBaudStep() Step {
	return CommandStep("misc control max baud", NewWriteRegister(RegMiscControl, miscControlMaxBaud), SleepTime)
}
