package bm1397

import (
	"context"
	"errors"
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/devices/base"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397/protocol"
	"github.com/fernandosanchezjr/goaxeminer/devices/link"
	"github.com/fernandosanchezjr/goaxeminer/statistics"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	log "github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

const (
	ResultQueueLen    = 256
	BlockQueueLen     = 16
	ReadBufferLen     = 1024
	EnumerateTimeout  = 500 * time.Millisecond
	ReadErrorDelay    = 100 * time.Millisecond
	MinFullscanPeriod = time.Millisecond
)

var (
	ErrChipCount  = errors.New("too few chips answered")
	ErrNotStarted = errors.New("controller not started")
	ErrClosed     = errors.New("controller closed")
)

type reinitRequest struct {
	ctx       context.Context
	frequency float64
	done      chan error
}

// BM1397Controller drives one BM1397 chain: it initialises the chips, paces work
// packets onto the link and grades the nonces coming back.
type BM1397Controller struct {
	name             string
	chip             config.Chip
	link             *link.ChipLink
	stats            *statistics.Statistics
	table            *base.PendingJobTable
	builder          *JobBuilder
	matcher          *ResultMatcher
	chipCount        int
	frequency        float64
	hashRate         utils.HashRate
	fullscanDuration time.Duration
	resync           uint32
	workChan         chan *stratum.Work
	reinitChan       chan *reinitRequest
	resultQueue      chan protocol.NonceResponse
	blocks           chan *base.BlockCandidate
	quit             chan struct{}
	waiter           sync.WaitGroup
	startOnce        sync.Once
	closeOnce        sync.Once
	started          bool
	mtx              sync.Mutex
	ResetFunc        func(ctx context.Context) error
}

func NewBM1397Controller(
	name string,
	chipLink *link.ChipLink,
	chip config.Chip,
	stats *statistics.Statistics,
) *BM1397Controller {
	if stats == nil {
		stats = statistics.NewStatistics()
	}
	table := base.NewPendingJobTable()
	bm := &BM1397Controller{
		name:        name,
		chip:        chip,
		link:        chipLink,
		stats:       stats,
		table:       table,
		builder:     NewJobBuilder(table, chip.Midstates),
		matcher:     NewResultMatcher(table),
		workChan:    make(chan *stratum.Work, 1),
		reinitChan:  make(chan *reinitRequest),
		resultQueue: make(chan protocol.NonceResponse, ResultQueueLen),
		blocks:      make(chan *base.BlockCandidate, BlockQueueLen),
		quit:        make(chan struct{}),
	}
	if chip.Reset.Enabled {
		bm.ResetFunc = func(ctx context.Context) error {
			return link.GPIOReset(ctx, chip.Reset.Pin, chip.Reset.PulseDuration())
		}
	}
	return bm
}

func (bm *BM1397Controller) String() string {
	return bm.name
}

func (bm *BM1397Controller) ChipCount() int {
	return bm.chipCount
}

func (bm *BM1397Controller) Frequency() float64 {
	bm.mtx.Lock()
	defer bm.mtx.Unlock()
	return bm.frequency
}

func (bm *BM1397Controller) HashRate() utils.HashRate {
	bm.mtx.Lock()
	defer bm.mtx.Unlock()
	return bm.hashRate
}

func (bm *BM1397Controller) FullscanDuration() time.Duration {
	bm.mtx.Lock()
	defer bm.mtx.Unlock()
	return bm.fullscanDuration
}

func (bm *BM1397Controller) dispatchPeriod() time.Duration {
	if period := bm.FullscanDuration(); period > MinFullscanPeriod {
		return period
	}
	return MinFullscanPeriod
}

func (bm *BM1397Controller) Blocks() <-chan *base.BlockCandidate {
	return bm.blocks
}

// Reset brings the chain up. Any error leaves the chips unusable and the workers stopped.
func (bm *BM1397Controller) Reset(ctx context.Context) error {
	log.WithFields(log.Fields{
		"controller": bm.String(),
		"transport":  bm.chip.Transport,
	}).Infoln("Resetting")
	if bm.ResetFunc != nil {
		if err := bm.ResetFunc(ctx); err != nil {
			return fmt.Errorf("reset pulse: %w", err)
		}
	}
	if err := bm.countChips(ctx); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"controller": bm.String(),
		"chips":      bm.chipCount,
	}).Infoln("Found chips")
	program := bm.solveFrequency(bm.chip.Frequency)
	addresses := protocol.ChipAddresses(bm.chipCount, bm.chip.AddressInterval)
	if err := bm.link.Run(ctx, protocol.InitSteps(addresses, program)); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if bm.chip.MaxBaud {
		if err := bm.link.Run(ctx, []protocol.Step{protocol.MaxBaudStep()}); err != nil {
			return fmt.Errorf("init: %w", err)
		}
		if err := bm.link.SetBaudRate(protocol.MaxBaudRate); err != nil {
			return fmt.Errorf("max baud: %w", err)
		}
	}
	if err := bm.link.Run(ctx, []protocol.Step{bm.maskStep(bm.chip.Difficulty)}); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	bm.setTiming(program.Frequency)
	log.WithFields(log.Fields{
		"controller": bm.String(),
		"frequency":  program.String(),
	}).Infoln("Reset")
	return nil
}

// countChips broadcasts an address read and counts the chip id replies until the line goes idle.
func (bm *BM1397Controller) countChips(ctx context.Context) error {
	if err := bm.link.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	data, err := protocol.NewReadAddress().MarshalBinary()
	if err != nil {
		return err
	}
	if err := bm.link.Send(data); err != nil {
		return fmt.Errorf("read address: %w", err)
	}
	parser := protocol.NewResponseParser()
	buf := make([]byte, ReadBufferLen)
	deadline := time.Now().Add(EnumerateTimeout)
	var found int
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		read, err := bm.link.Read(buf)
		if err != nil {
			return fmt.Errorf("read address: %w", err)
		}
		if read == 0 {
			if found >= bm.chip.ChipCount {
				break
			}
			continue
		}
		_, _ = parser.Write(buf[:read])
		for resp, ok := parser.Next(); ok; resp, ok = parser.Next() {
			if resp.ChipId() == protocol.ChipId {
				found += 1
			}
		}
	}
	if found < bm.chip.ChipCount {
		return fmt.Errorf("found %d chips instead of %d: %w", found, bm.chip.ChipCount, ErrChipCount)
	}
	bm.chipCount = found
	return nil
}

func (bm *BM1397Controller) solveFrequency(frequency float64) protocol.FrequencyProgram {
	program := protocol.SolveFrequency(frequency)
	if program.Fallback {
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"requested":  frequency,
			"frequency":  program.Frequency,
		}).Warnln("Unsupported frequency, using fallback")
	}
	return program
}

func (bm *BM1397Controller) maskStep(difficulty uint64) protocol.Step {
	bm.builder.SetMaskDifficulty(protocol.MaskDifficulty(protocol.DifficultyMask(difficulty)))
	return protocol.CommandStep("ticket mask", protocol.NewDifficultyMask(difficulty, bm.chip.ReverseMaskBits), 0)
}

func (bm *BM1397Controller) setTiming(frequency float64) {
	hashRate, fullscanDuration := protocol.Timing(bm.chipCount, frequency, protocol.NumCores)
	bm.mtx.Lock()
	bm.frequency = frequency
	bm.hashRate = hashRate
	bm.fullscanDuration = fullscanDuration
	bm.mtx.Unlock()
	log.WithFields(log.Fields{
		"controller":   bm.String(),
		"hashRate":     hashRate,
		"fullScanTime": fullscanDuration,
	}).Infoln("Timing set up")
}

// Start launches the workers. Reset must have succeeded first.
func (bm *BM1397Controller) Start() {
	bm.startOnce.Do(func() {
		bm.mtx.Lock()
		bm.started = true
		bm.mtx.Unlock()
		bm.waiter.Add(3)
		go bm.verifyLoop()
		go bm.readLoop()
		go bm.writeLoop()
	})
}

// UpdateWork replaces the queued work. A clean jobs flag survives replacement.
func (bm *BM1397Controller) UpdateWork(work *stratum.Work) {
	for {
		select {
		case bm.workChan <- work:
			return
		default:
		}
		select {
		case previous := <-bm.workChan:
			if previous.CleanJobs && !work.CleanJobs {
				work = work.Clone()
				work.CleanJobs = true
			}
		default:
		}
	}
}

// SetFrequency reprograms the hash clock from the write loop, so no packet is sent meanwhile.
func (bm *BM1397Controller) SetFrequency(ctx context.Context, frequency float64) error {
	bm.mtx.Lock()
	started := bm.started
	bm.mtx.Unlock()
	if !started {
		return ErrNotStarted
	}
	req := &reinitRequest{ctx: ctx, frequency: frequency, done: make(chan error, 1)}
	select {
	case bm.reinitChan <- req:
	case <-bm.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-bm.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reinit reprograms the PLL. Bytes already read belong to the old clock, so the
// read loop is asked to drop its partial frame instead of the port being drained
// underneath it.
func (bm *BM1397Controller) reinit(req *reinitRequest) error {
	atomic.StoreUint32(&bm.resync, 1)
	program := bm.solveFrequency(req.frequency)
	if err := bm.link.Run(req.ctx, program.Steps()); err != nil {
		return fmt.Errorf("frequency: %w", err)
	}
	bm.setTiming(program.Frequency)
	log.WithFields(log.Fields{
		"controller": bm.String(),
		"frequency":  program.String(),
	}).Infoln("Frequency changed")
	return nil
}

func (bm *BM1397Controller) Close() {
	bm.closeOnce.Do(func() {
		close(bm.quit)
		bm.waiter.Wait()
		bm.matcher.Close()
		if err := bm.link.Close(); err != nil {
			log.WithFields(log.Fields{
				"controller": bm.String(),
				"error":      err,
			}).Warnln("Error closing link")
		}
		close(bm.blocks)
	})
}

func (bm *BM1397Controller) loopRecover(loopName string) {
	if err := recover(); err != nil {
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"loop":       loopName,
			"error":      err,
		}).Errorln("Loop error")
	}
}

func (bm *BM1397Controller) writeLoop() {
	defer bm.waiter.Done()
	defer bm.loopRecover("write")
	var buf protocol.FrameBuffer
	mainTicker := time.NewTicker(bm.dispatchPeriod())
	defer func() {
		mainTicker.Stop()
	}()
	for {
		select {
		case <-bm.quit:
			return
		case req := <-bm.reinitChan:
			req.done <- bm.reinit(req)
			mainTicker.Stop()
			mainTicker = time.NewTicker(bm.dispatchPeriod())
		case work := <-bm.workChan:
			if bm.setWork(work) && work.CleanJobs {
				bm.dispatch(&buf)
			}
		case <-mainTicker.C:
			bm.dispatch(&buf)
		}
	}
}

func (bm *BM1397Controller) setWork(work *stratum.Work) bool {
	if err := bm.builder.SetWork(work); err != nil {
		bm.stats.AddMalformedWork()
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"jobId":      work.JobId,
			"pool":       work.PoolName,
			"error":      err,
		}).Warnln("Rejected malformed work")
		return false
	}
	difficulty := uint64(work.Difficulty)
	maskDifficulty := protocol.MaskDifficulty(protocol.DifficultyMask(difficulty))
	if maskDifficulty != bm.builder.MaskDifficulty() {
		step := bm.maskStep(difficulty)
		if err := bm.link.Send(step.Frame); err != nil {
			bm.stats.AddWriteError()
			log.WithFields(log.Fields{
				"controller": bm.String(),
				"error":      err,
			}).Warnln("Error writing ticket mask")
		} else {
			log.WithFields(log.Fields{
				"controller": bm.String(),
				"difficulty": maskDifficulty,
			}).Infoln("Ticket mask updated")
		}
	}
	return true
}

func (bm *BM1397Controller) dispatch(buf *protocol.FrameBuffer) {
	job, err := bm.builder.Next()
	if errors.Is(err, ErrNoWork) {
		return
	} else if err != nil {
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"error":      err,
		}).Warnln("Error building job")
		return
	}
	data, err := job.Encode(buf)
	if err != nil {
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"error":      err,
		}).Warnln("Error encoding job")
		return
	}
	if err := bm.link.Send(data); err != nil {
		bm.stats.AddWriteError()
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"jobId":      job.JobId,
			"error":      err,
		}).Warnln("Job write error")
	}
}

func (bm *BM1397Controller) readLoop() {
	defer bm.waiter.Done()
	defer bm.loopRecover("read")
	buf := make([]byte, ReadBufferLen)
	parser := protocol.NewResponseParser()
	for {
		select {
		case <-bm.quit:
			return
		default:
		}
		read, err := bm.link.Read(buf)
		if err != nil {
			log.WithFields(log.Fields{
				"controller": bm.String(),
				"error":      err,
			}).Warnln("Read error")
			select {
			case <-bm.quit:
				return
			case <-time.After(ReadErrorDelay):
			}
			continue
		}
		if atomic.CompareAndSwapUint32(&bm.resync, 1, 0) {
			if dropped := parser.Reset(); dropped > 0 {
				log.WithFields(log.Fields{
					"controller": bm.String(),
					"dropped":    dropped,
				}).Debugln("Parser reset")
			}
		}
		if read == 0 {
			continue
		}
		_, _ = parser.Write(buf[:read])
		for resp, ok := parser.Next(); ok; resp, ok = parser.Next() {
			if !resp.IsJob() {
				log.WithFields(log.Fields{
					"controller": bm.String(),
					"response":   resp.String(),
				}).Debugln("Ignoring command response")
				continue
			}
			select {
			case bm.resultQueue <- resp:
			default:
				bm.stats.AddDroppedResult()
			}
		}
	}
}

func (bm *BM1397Controller) verifyLoop() {
	defer bm.waiter.Done()
	defer bm.loopRecover("verify")
	for {
		select {
		case <-bm.quit:
			return
		case resp := <-bm.resultQueue:
			bm.verify(resp)
		}
	}
}

func (bm *BM1397Controller) verify(resp protocol.NonceResponse) {
	match := bm.matcher.Match(resp)
	switch match.Class {
	case Unmatched:
		bm.stats.AddUnmatched()
		return
	case Duplicate:
		bm.stats.AddDuplicate()
		return
	}
	result := match.Result
	bm.stats.AddHashes(float64(result.Job.MaskDifficulty))
	difficulty := result.Difficulty()
	if match.Class == LowDifficulty {
		bm.stats.AddLowDifficulty()
		return
	}
	bm.stats.AddShare()
	if bm.stats.RecordDifficulty(difficulty) {
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"difficulty": difficulty,
		}).Infoln("Best share")
	}
	bm.submit(result)
	if match.Class == Block {
		bm.stats.AddBlock()
		candidate := base.NewBlockCandidate(result)
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"hash":       utils.HashString(result.Hash),
			"jobId":      result.Job.JobId,
			"pool":       result.Job.PoolName,
		}).Warnln("Block candidate found")
		select {
		case bm.blocks <- candidate:
		default:
			log.WithFields(log.Fields{
				"controller": bm.String(),
			}).Warnln("Block candidate queue full")
		}
	}
}

func (bm *BM1397Controller) submit(result *base.TaskResult) {
	submit := result.Submit()
	log.WithFields(log.Fields{
		"controller":  bm.String(),
		"jobId":       result.Job.JobId,
		"extraNonce2": fmt.Sprintf("%x", result.Job.ExtraNonce2),
		"nTime":       result.Job.NTime,
		"nonce":       result.Nonce,
		"version":     result.Version,
		"difficulty":  submit.Difficulty,
	}).Infoln("Result")
	if result.Job.SubmitChan == nil {
		return
	}
	select {
	case result.Job.SubmitChan <- submit:
	default:
		log.WithFields(log.Fields{
			"controller": bm.String(),
			"pool":       result.Job.PoolName,
		}).Warnln("Submit queue full, share dropped")
	}
}
