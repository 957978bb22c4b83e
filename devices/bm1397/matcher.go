package bm1397

import (
	"fmt"
	"github.com/ReneKroon/ttlcache"
	"github.com/fernandosanchezjr/goaxeminer/devices/base"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"time"
)

const DuplicateWindow = 10 * time.Minute

type MatchClass int

const (
	Unmatched MatchClass = iota
	Duplicate
	LowDifficulty
	Share
	Block
)

func (mc MatchClass) String() string {
	switch mc {
	case Duplicate:
		return "duplicate"
	case LowDifficulty:
		return "low difficulty"
	case Share:
		return "share"
	case Block:
		return "block"
	default:
		return "unmatched"
	}
}

// Match is the classification of one nonce response. Result is nil for unmatched responses.
type Match struct {
	Class  MatchClass
	Result *base.TaskResult
}

// Submittable reports whether the result goes to the pool.
func (m *Match) Submittable() bool {
	return m.Class == Share || m.Class == Block
}

// ResultMatcher correlates chip responses with pending jobs and grades the resulting hashes.
type ResultMatcher struct {
	table *base.PendingJobTable
	seen  *ttlcache.Cache
}

func NewResultMatcher(table *base.PendingJobTable) *ResultMatcher {
	return &ResultMatcher{table: table, seen: ttlcache.NewCache()}
}

func duplicateKey(job *base.PendingJob, resp *protocol.NonceResponse) string {
	return fmt.Sprintf("%s-%x-%08x-%d-%d", job.JobId, job.ExtraNonce2, resp.Nonce, resp.JobId,
		resp.MidstateIndex)
}

func (rm *ResultMatcher) Match(resp protocol.NonceResponse) *Match {
	job, found := rm.table.Lookup(resp.JobId)
	if !found || int(resp.MidstateIndex) >= job.MidstateCount() {
		return &Match{Class: Unmatched}
	}
	key := duplicateKey(job, &resp)
	if _, seen := rm.seen.Get(key); seen {
		return &Match{Class: Duplicate}
	}
	rm.seen.SetWithTTL(key, true, DuplicateWindow)
	result := base.NewTaskResult()
	result.Update(job, int(resp.MidstateIndex), utils.Nonce32(resp.Nonce))
	result.CalculateHash()
	match := &Match{Class: LowDifficulty, Result: result}
	if result.MeetsNetworkTarget() {
		match.Class = Block
	} else if result.MeetsPoolTarget() {
		match.Class = Share
	}
	return match
}

func (rm *ResultMatcher) Close() {
	rm.seen.Close()
}
