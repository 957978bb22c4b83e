package base

import (
	"encoding/binary"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	"github.com/fernandosanchezjr/goaxeminer/stratum/protocol"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"math/big"
)

// TaskResult rebuilds the header a chip hashed for one nonce.
type TaskResult struct {
	Job           *PendingJob
	MidstateIndex int
	Version       utils.Version
	Nonce         utils.Nonce32
	Header        [stratum.HeaderLen]byte
	Hash          [32]byte
	hashInt       *big.Int
}

func NewTaskResult() *TaskResult {
	return &TaskResult{}
}

func (tr *TaskResult) Update(job *PendingJob, midstateIndex int, nonce utils.Nonce32) {
	tr.Job = job
	tr.MidstateIndex = midstateIndex
	tr.Version = job.Versions[midstateIndex]
	tr.Nonce = nonce
	tr.Header = job.Header
	tr.hashInt = nil
}

func (tr *TaskResult) UpdateHeader() {
	binary.LittleEndian.PutUint32(tr.Header[0:], uint32(tr.Version))
	binary.LittleEndian.PutUint32(tr.Header[76:], uint32(tr.Nonce))
}

func (tr *TaskResult) CalculateHash() [32]byte {
	tr.UpdateHeader()
	tr.Hash = utils.DoubleHash(tr.Header[:])
	tr.hashInt = utils.HashToBig(tr.Hash)
	return tr.Hash
}

func (tr *TaskResult) HashInt() *big.Int {
	if tr.hashInt == nil {
		tr.CalculateHash()
	}
	return tr.hashInt
}

func (tr *TaskResult) Difficulty() utils.Difficulty {
	return utils.HashDifficulty(tr.Hash)
}

// MeetsPoolTarget reports whether the hash is strictly below the pool target.
func (tr *TaskResult) MeetsPoolTarget() bool {
	return tr.HashInt().Cmp(tr.Job.PoolTarget) < 0
}

// MeetsNetworkTarget reports whether the hash would solve the block.
func (tr *TaskResult) MeetsNetworkTarget() bool {
	return tr.HashInt().Cmp(tr.Job.NetworkTarget) <= 0
}

func (tr *TaskResult) Submit() *protocol.Submit {
	return protocol.NewSubmit(
		tr.Job.JobId,
		tr.Job.ExtraNonce2,
		tr.Job.NTime,
		tr.Nonce,
		tr.Version&tr.Job.VersionMask,
		tr.Job.VersionRolling,
		tr.Difficulty(),
	)
}
