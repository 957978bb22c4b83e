package statistics

import (
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	log "github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is a point in time copy of all counters.
type Snapshot struct {
	Time           time.Time
	Started        time.Time
	Accepted       uint64
	Rejected       uint64
	Shares         uint64
	LowDifficulty  uint64
	Unmatched      uint64
	Duplicates     uint64
	Blocks         uint64
	MalformedWork  uint64
	WriteErrors    uint64
	DroppedResults uint64
	BestSession    float64
	BestEver       float64
	HashRate       float64
}

func (s Snapshot) Fields() log.Fields {
	return log.Fields{
		"accepted":      s.Accepted,
		"rejected":      s.Rejected,
		"lowDifficulty": s.LowDifficulty,
		"unmatched":     s.Unmatched,
		"duplicates":    s.Duplicates,
		"blocks":        s.Blocks,
		"bestSession":   utils.Difficulty(s.BestSession).String(),
		"bestEver":      utils.Difficulty(s.BestEver).String(),
		"hashRate":      utils.HashRate(s.HashRate).String(),
	}
}

// Statistics collects the mining counters shared by the pipeline and the pool clients.
type Statistics struct {
	started        time.Time
	accepted       uint64
	rejected       uint64
	shares         uint64
	lowDifficulty  uint64
	unmatched      uint64
	duplicates     uint64
	blocks         uint64
	malformedWork  uint64
	writeErrors    uint64
	droppedResults uint64
	bestMtx        sync.Mutex
	bestSession    float64
	bestEver       float64
	meter          *HashRateMeter
}

func NewStatistics() *Statistics {
	return &Statistics{started: time.Now(), meter: NewHashRateMeter()}
}

func (s *Statistics) ShareAccepted(pool string, difficulty utils.Difficulty) {
	atomic.AddUint64(&s.accepted, 1)
}

func (s *Statistics) ShareRejected(pool string, difficulty utils.Difficulty, reason string) {
	atomic.AddUint64(&s.rejected, 1)
}

func (s *Statistics) AddShare() {
	atomic.AddUint64(&s.shares, 1)
}

func (s *Statistics) AddLowDifficulty() {
	atomic.AddUint64(&s.lowDifficulty, 1)
}

func (s *Statistics) AddUnmatched() {
	atomic.AddUint64(&s.unmatched, 1)
}

func (s *Statistics) AddDuplicate() {
	atomic.AddUint64(&s.duplicates, 1)
}

func (s *Statistics) AddBlock() {
	atomic.AddUint64(&s.blocks, 1)
}

func (s *Statistics) AddMalformedWork() {
	atomic.AddUint64(&s.malformedWork, 1)
}

func (s *Statistics) AddWriteError() {
	atomic.AddUint64(&s.writeErrors, 1)
}

func (s *Statistics) AddDroppedResult() {
	atomic.AddUint64(&s.droppedResults, 1)
}

// AddHashes credits the difficulty a matched chip result represents to the hash rate.
func (s *Statistics) AddHashes(difficulty float64) {
	s.meter.Add(difficulty)
}

// RecordDifficulty updates the best share difficulty and reports whether it is a new session best.
func (s *Statistics) RecordDifficulty(difficulty utils.Difficulty) bool {
	s.bestMtx.Lock()
	defer s.bestMtx.Unlock()
	d := float64(difficulty)
	if d > s.bestEver {
		s.bestEver = d
	}
	if d > s.bestSession {
		s.bestSession = d
		return true
	}
	return false
}

// Restore carries the best difficulty of a previous run over.
func (s *Statistics) Restore(snapshot *Snapshot) {
	if snapshot == nil {
		return
	}
	s.bestMtx.Lock()
	defer s.bestMtx.Unlock()
	if snapshot.BestEver > s.bestEver {
		s.bestEver = snapshot.BestEver
	}
}

func (s *Statistics) Snapshot() *Snapshot {
	now := time.Now()
	s.bestMtx.Lock()
	bestSession, bestEver := s.bestSession, s.bestEver
	s.bestMtx.Unlock()
	return &Snapshot{
		Time:           now,
		Started:        s.started,
		Accepted:       atomic.LoadUint64(&s.accepted),
		Rejected:       atomic.LoadUint64(&s.rejected),
		Shares:         atomic.LoadUint64(&s.shares),
		LowDifficulty:  atomic.LoadUint64(&s.lowDifficulty),
		Unmatched:      atomic.LoadUint64(&s.unmatched),
		Duplicates:     atomic.LoadUint64(&s.duplicates),
		Blocks:         atomic.LoadUint64(&s.blocks),
		MalformedWork:  atomic.LoadUint64(&s.malformedWork),
		WriteErrors:    atomic.LoadUint64(&s.writeErrors),
		DroppedResults: atomic.LoadUint64(&s.droppedResults),
		BestSession:    bestSession,
		BestEver:       bestEver,
		HashRate:       float64(s.meter.Rate(now)),
	}
}

func (s *Statistics) String() string {
	snapshot := s.Snapshot()
	return fmt.Sprintf("A:%d R:%d best %s rate %s", snapshot.Accepted, snapshot.Rejected,
		utils.Difficulty(snapshot.BestSession), utils.HashRate(snapshot.HashRate))
}
