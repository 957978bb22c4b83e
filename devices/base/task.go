package base

import (
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"math/big"
	"time"
)

// PendingJob is everything needed to turn a nonce for a dispatched job back into a share.
type PendingJob struct {
	JobId          string
	ExtraNonce2    []byte
	Header         [stratum.HeaderLen]byte
	NTime          utils.NTime
	NBits          utils.NBits
	Versions       []utils.Version
	VersionRolling bool
	VersionMask    utils.Version
	PoolDifficulty float64
	PoolTarget     *big.Int
	NetworkTarget  *big.Int
	MaskDifficulty uint64
	Dispatched     time.Time
	SubmitChan     stratum.SubmitChan
	PoolName       string
}

func (pj *PendingJob) MidstateCount() int {
	return len(pj.Versions)
}
