package base

import (
	"context"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
)

// IController is a hash chip chain driven by its own pipeline goroutines.
type IController interface {
	String() string
	Reset(ctx context.Context) error
	Start()
	UpdateWork(work *stratum.Work)
	SetFrequency(ctx context.Context, frequency float64) error
	Blocks() <-chan *BlockCandidate
	Close()
}
