package stratum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/stratum/protocol"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"math/big"
)

const HeaderLen = 80

var (
	ErrPrevHashLen     = errors.New("previous block hash must be 32 bytes")
	ErrMerkleBranchLen = errors.New("merkle branch must be 32 bytes")
	ErrExtraNonce2Len  = errors.New("extranonce2 size must be between 1 and 8 bytes")
	ErrDifficulty      = errors.New("difficulty must be positive")
)

type SubmitChan chan *protocol.Submit

// Work is one pool job together with the session parameters needed to turn it into headers.
type Work struct {
	ExtraNonce1        []byte
	ExtraNonce2Len     int
	VersionRolling     bool
	VersionRollingMask utils.Version
	Difficulty         float64
	JobId              string
	PrevHash           []byte
	CoinBase1          []byte
	CoinBase2          []byte
	MerkleBranches     [][]byte
	Version            utils.Version
	NBits              utils.NBits
	NTime              utils.NTime
	CleanJobs          bool
	SubmitChan         SubmitChan
	PoolName           string
}

type PoolWorkChan chan *Work

func NewWork(
	subscription *protocol.SubscribeResponse,
	configuration *protocol.ConfigureResponse,
	setDifficulty *protocol.SetDifficulty,
	notify *protocol.Notify,
) *Work {
	w := &Work{
		ExtraNonce1:    subscription.ExtraNonce1,
		ExtraNonce2Len: subscription.ExtraNonce2Len,
		Difficulty:     setDifficulty.Difficulty,
		JobId:          notify.JobId,
		PrevHash:       notify.PrevHash,
		CoinBase1:      notify.CoinBase1,
		CoinBase2:      notify.CoinBase2,
		MerkleBranches: notify.MerkleBranches,
		Version:        notify.Version,
		NBits:          notify.NBits,
		NTime:          notify.NTime,
		CleanJobs:      notify.CleanJobs,
	}
	if configuration != nil {
		w.VersionRolling = configuration.VersionRolling
		w.VersionRollingMask = configuration.VersionRollingMask
	}
	return w
}

func (w *Work) String() string {
	return fmt.Sprint("Work ", w.JobId, " difficulty ", utils.Difficulty(w.Difficulty), " from ", w.PoolName)
}

// Validate rejects jobs the header builder cannot use.
func (w *Work) Validate() error {
	if len(w.PrevHash) != 32 {
		return ErrPrevHashLen
	}
	for _, branch := range w.MerkleBranches {
		if len(branch) != 32 {
			return ErrMerkleBranchLen
		}
	}
	if w.ExtraNonce2Len < 1 || w.ExtraNonce2Len > 8 {
		return ErrExtraNonce2Len
	}
	if w.Difficulty <= 0 {
		return ErrDifficulty
	}
	return nil
}

func (w *Work) ExtraNonce2Mask() uint64 {
	return 0xffffffffffffffff >> uint64(64-(w.ExtraNonce2Len*8))
}

// ExtraNonce2 serializes extraNonce2 big-endian into ExtraNonce2Len bytes.
func (w *Work) ExtraNonce2(extraNonce2 uint64) []byte {
	var data [8]byte
	binary.BigEndian.PutUint64(data[:], extraNonce2&w.ExtraNonce2Mask())
	return append([]byte{}, data[8-w.ExtraNonce2Len:]...)
}

func (w *Work) Coinbase(extraNonce2 []byte) []byte {
	coinbase := make([]byte, 0, len(w.CoinBase1)+len(w.ExtraNonce1)+len(extraNonce2)+len(w.CoinBase2))
	coinbase = append(coinbase, w.CoinBase1...)
	coinbase = append(coinbase, w.ExtraNonce1...)
	coinbase = append(coinbase, extraNonce2...)
	return append(coinbase, w.CoinBase2...)
}

func (w *Work) MerkleRoot(extraNonce2 []byte) [32]byte {
	var plainText [64]byte
	merkleRoot := utils.DoubleHash(w.Coinbase(extraNonce2))
	for _, branch := range w.MerkleBranches {
		copy(plainText[:], merkleRoot[:])
		copy(plainText[32:], branch)
		merkleRoot = utils.DoubleHash(plainText[:])
	}
	return merkleRoot
}

// Header serializes the block header for extraNonce2 with a zero nonce.
func (w *Work) Header(extraNonce2 []byte) [HeaderLen]byte {
	var header [HeaderLen]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(w.Version))
	copy(header[4:36], w.PrevHash)
	utils.SwapUint32Bytes(header[4:36])
	merkleRoot := w.MerkleRoot(extraNonce2)
	copy(header[36:68], merkleRoot[:])
	binary.LittleEndian.PutUint32(header[68:], uint32(w.NTime))
	binary.LittleEndian.PutUint32(header[72:], uint32(w.NBits))
	return header
}

func (w *Work) PoolTarget() *big.Int {
	return utils.DifficultyTarget(w.Difficulty)
}

func (w *Work) NetworkTarget() *big.Int {
	return utils.NetworkTarget(uint32(w.NBits))
}

func (w *Work) Clone() *Work {
	result := *w
	return &result
}
