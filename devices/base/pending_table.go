package base

import "sync"

const PendingJobSlots = 128

// PendingJobTable maps chip job ids to dispatched jobs. A slot is overwritten when its
// id comes around again, so at most PendingJobSlots jobs are ever retained.
type PendingJobTable struct {
	mtx   sync.RWMutex
	slots [PendingJobSlots]*PendingJob
}

func NewPendingJobTable() *PendingJobTable {
	return &PendingJobTable{}
}

func (pjt *PendingJobTable) Store(jobId byte, job *PendingJob) {
	pjt.mtx.Lock()
	defer pjt.mtx.Unlock()
	pjt.slots[int(jobId)%PendingJobSlots] = job
}

func (pjt *PendingJobTable) Lookup(jobId byte) (*PendingJob, bool) {
	pjt.mtx.RLock()
	defer pjt.mtx.RUnlock()
	job := pjt.slots[int(jobId)%PendingJobSlots]
	return job, job != nil
}

// Invalidate forgets every pending job so late results no longer match.
func (pjt *PendingJobTable) Invalidate() {
	pjt.mtx.Lock()
	defer pjt.mtx.Unlock()
	for i := range pjt.slots {
		pjt.slots[i] = nil
	}
}

func (pjt *PendingJobTable) Len() int {
	pjt.mtx.RLock()
	defer pjt.mtx.RUnlock()
	var count int
	for _, job := range pjt.slots {
		if job != nil {
			count++
		}
	}
	return count
}
