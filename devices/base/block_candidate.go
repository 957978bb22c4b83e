package base

import (
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"time"
)

// BlockCandidate is a result whose hash meets the network target.
type BlockCandidate struct {
	Time       time.Time
	PoolName   string
	JobId      string
	Nonce      utils.Nonce32
	Version    utils.Version
	Header     [stratum.HeaderLen]byte
	Hash       [32]byte
	Difficulty utils.Difficulty
}

func NewBlockCandidate(tr *TaskResult) *BlockCandidate {
	return &BlockCandidate{
		Time:       time.Now(),
		PoolName:   tr.Job.PoolName,
		JobId:      tr.Job.JobId,
		Nonce:      tr.Nonce,
		Version:    tr.Version,
		Header:     tr.Header,
		Hash:       tr.Hash,
		Difficulty: tr.Difficulty(),
	}
}

func (bc *BlockCandidate) String() string {
	return fmt.Sprintf("block %s job %s from %s", utils.HashString(bc.Hash), bc.JobId, bc.PoolName)
}
