package protocol

import "time"

// Step is one timed write of an initialisation sequence. A nil Frame only waits.
type Step struct {
	Name      string
	Frame     []byte
	PostDelay time.Duration
}

func WaitStep(name string, delay time.Duration) Step {
	return Step{Name: name, PostDelay: delay}
}

func CommandStep(name string, frame *Frame, delay time.Duration) Step {
	data, _ := frame.MarshalBinary()
	return Step{Name: name, Frame: data, PostDelay: delay}
}
