package bm1397

import (
	"encoding/binary"
	"errors"
	"github.com/fernandosanchezjr/goaxeminer/devices/base"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"math/big"
	"time"
)

var ErrNoWork = errors.New("no work")

// JobBuilder turns the current pool job into chip work packets and remembers each
// dispatched packet in the pending job table.
type JobBuilder struct {
	table          *base.PendingJobTable
	midstates      int
	work           *stratum.Work
	versionSource  *utils.VersionSource
	extraNonce2    uint64
	nextJobId      byte
	maskDifficulty uint64
	poolTarget     *big.Int
	networkTarget  *big.Int
}

func NewJobBuilder(table *base.PendingJobTable, midstates int) *JobBuilder {
	if !protocol.ValidMidstateCount(midstates) {
		midstates = 1
	}
	return &JobBuilder{table: table, midstates: midstates, maskDifficulty: 1}
}

// SetWork validates and installs a new pool job. Clean jobs drop every pending entry.
func (jb *JobBuilder) SetWork(work *stratum.Work) error {
	if err := work.Validate(); err != nil {
		return err
	}
	if work.CleanJobs {
		jb.table.Invalidate()
	}
	var mask utils.Version
	if work.VersionRolling {
		mask = work.VersionRollingMask
	}
	if jb.versionSource == nil || jb.versionSource.Version != work.Version || jb.versionSource.Mask != mask {
		jb.versionSource = utils.NewVersionSource(work.Version, mask, utils.DefaultVersionBits)
	} else {
		jb.versionSource.ResetPos()
	}
	jb.work = work
	jb.extraNonce2 = 0
	jb.poolTarget = work.PoolTarget()
	jb.networkTarget = work.NetworkTarget()
	return nil
}

func (jb *JobBuilder) Work() *stratum.Work {
	return jb.work
}

// SetMaskDifficulty records the difficulty every nonce passing the chip ticket mask is worth.
func (jb *JobBuilder) SetMaskDifficulty(difficulty uint64) {
	jb.maskDifficulty = difficulty
}

func (jb *JobBuilder) MaskDifficulty() uint64 {
	return jb.maskDifficulty
}

// MidstateCount is the number of version variants per packet. Without enough rollable
// versions a single midstate is sent.
func (jb *JobBuilder) MidstateCount() int {
	if jb.versionSource == nil || jb.versionSource.Len() < jb.midstates {
		return 1
	}
	return jb.midstates
}

func (jb *JobBuilder) takeJobId() byte {
	jobId := jb.nextJobId
	jb.nextJobId = byte((int(jb.nextJobId) + 1) % base.PendingJobSlots)
	return jobId
}

// Next builds the packet for the next extranonce2 and stores its pending entry.
func (jb *JobBuilder) Next() (*protocol.Job, error) {
	if jb.work == nil {
		return nil, ErrNoWork
	}
	work := jb.work
	extraNonce2 := work.ExtraNonce2(jb.extraNonce2)
	jb.extraNonce2 = (jb.extraNonce2 + 1) & work.ExtraNonce2Mask()
	header := work.Header(extraNonce2)
	versions := make([]utils.Version, jb.MidstateCount())
	jb.versionSource.Retrieve(versions)
	job := &protocol.Job{
		JobId:          jb.takeJobId(),
		NBits:          binary.LittleEndian.Uint32(header[72:]),
		NTime:          binary.LittleEndian.Uint32(header[68:]),
		MerkleRootTail: binary.LittleEndian.Uint32(header[64:]),
		Midstates:      make([][protocol.MidstateLen]byte, len(versions)),
	}
	variant := header
	for i, version := range versions {
		binary.LittleEndian.PutUint32(variant[0:], uint32(version))
		job.Midstates[i] = utils.HeaderMidstate(variant[:])
	}
	jb.table.Store(job.JobId, &base.PendingJob{
		JobId:          work.JobId,
		ExtraNonce2:    extraNonce2,
		Header:         header,
		NTime:          work.NTime,
		NBits:          work.NBits,
		Versions:       versions,
		VersionRolling: work.VersionRolling,
		VersionMask:    work.VersionRollingMask,
		PoolDifficulty: work.Difficulty,
		PoolTarget:     jb.poolTarget,
		NetworkTarget:  jb.networkTarget,
		MaskDifficulty: jb.maskDifficulty,
		Dispatched:     time.Now(),
		SubmitChan:     work.SubmitChan,
		PoolName:       work.PoolName,
	})
	return job, nil
}
