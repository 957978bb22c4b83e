package statistics

import (
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"sync"
	"time"
)

const HashRateSamples = 128

type sample struct {
	time       time.Time
	difficulty float64
}

// HashRateMeter estimates the hash rate from the difficulty credited to recent chip results.
type HashRateMeter struct {
	mtx        sync.Mutex
	dataSeries [HashRateSamples]sample
	currentPos int
	count      int
	started    time.Time
}

func NewHashRateMeter() *HashRateMeter {
	return &HashRateMeter{started: time.Now()}
}

func (hr *HashRateMeter) Add(difficulty float64) {
	hr.AddAt(time.Now(), difficulty)
}

func (hr *HashRateMeter) AddAt(t time.Time, difficulty float64) {
	hr.mtx.Lock()
	defer hr.mtx.Unlock()
	hr.currentPos = (hr.currentPos + 1) % HashRateSamples
	hr.dataSeries[hr.currentPos] = sample{time: t, difficulty: difficulty}
	if hr.count < HashRateSamples {
		hr.count++
	}
}

// Rate spreads the recorded difficulty over the time since the oldest sample, or since
// the meter started while it is still filling.
func (hr *HashRateMeter) Rate(now time.Time) utils.HashRate {
	hr.mtx.Lock()
	defer hr.mtx.Unlock()
	if hr.count == 0 {
		return 0
	}
	var sum float64
	pos := hr.currentPos
	for i := 0; i < hr.count; i++ {
		sum += hr.dataSeries[pos].difficulty
		pos--
		if pos < 0 {
			pos += HashRateSamples
		}
	}
	oldest := hr.started
	if hr.count == HashRateSamples {
		oldestSample := hr.dataSeries[(hr.currentPos+1)%HashRateSamples]
		sum -= oldestSample.difficulty
		oldest = oldestSample.time
	}
	return utils.DifficultyRate(sum, now.Sub(oldest).Seconds())
}
