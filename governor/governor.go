package governor

import (
	"context"
	"errors"
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/devices/base"
	"github.com/fernandosanchezjr/goaxeminer/devices/bm1397"
	"github.com/fernandosanchezjr/goaxeminer/devices/link"
	"github.com/fernandosanchezjr/goaxeminer/statistics"
	"github.com/fernandosanchezjr/goaxeminer/storage"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

const (
	PoolWorkLen         = 4
	ResetTimeout        = 30 * time.Second
	SetFrequencyTimeout = 10 * time.Second
)

var ErrControllerInUse = errors.New("controller already registered")

type PortOpener func(chip config.Chip) (link.Port, error)

// OpenPort opens the transport named by the chip configuration.
func OpenPort(chip config.Chip) (link.Port, error) {
	switch chip.Transport {
	case config.TransportSerial:
		return link.OpenSerial(chip.Port, chip.BaudRate)
	case config.TransportFTDI:
		return link.OpenFTDI(chip.FTDIVendor, chip.FTDIProduct, chip.BaudRate)
	default:
		return nil, fmt.Errorf("unknown transport %q", chip.Transport)
	}
}

// Governor wires the chip controller, the pool client, statistics and persistence together.
type Governor struct {
	Config     *config.Config
	ConfigPath string
	Context    *base.Context
	Pool       *stratum.Pool
	PoolWork   stratum.PoolWorkChan
	Stats      *statistics.Statistics
	Store      *storage.Store
	OpenPort   PortOpener
	cron       *cron.Cron
	watcher    *fsnotify.Watcher
	controller *bm1397.BM1397Controller
	configMtx  sync.Mutex
	workQuit   chan struct{}
	wg         sync.WaitGroup
}

func NewGovernor(cfg *config.Config, configPath string) *Governor {
	return &Governor{
		Config:     cfg,
		ConfigPath: configPath,
		Context:    base.NewContext(),
		PoolWork:   make(stratum.PoolWorkChan, PoolWorkLen),
		Stats:      statistics.NewStatistics(),
		OpenPort:   OpenPort,
		workQuit:   make(chan struct{}),
	}
}

// Start brings the chain up and connects to the pools. An error means nothing is mining.
func (g *Governor) Start() error {
	if g.Config.Storage.Enabled {
		if err := g.openStore(); err != nil {
			return err
		}
	}
	if err := g.startController(); err != nil {
		return err
	}
	g.Pool = stratum.NewPool(g.Config.Pools, g.PoolWork, g.Stats)
	g.wg.Add(1)
	go g.workReceiver(g.controller.Blocks())
	g.Pool.Start()
	if err := g.startCron(); err != nil {
		return err
	}
	g.startWatcher()
	return nil
}

func (g *Governor) openStore() error {
	store, err := storage.Open(g.Config.Storage.Path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	g.Store = store
	snapshot, err := store.LoadSnapshot()
	if err != nil {
		log.WithFields(log.Fields{
			"path":  store.Path(),
			"error": err,
		}).Warnln("Error loading statistics")
		return nil
	}
	g.Stats.Restore(snapshot)
	return nil
}

func controllerName(chip config.Chip) string {
	if chip.Transport == config.TransportFTDI {
		return fmt.Sprintf("%s:%04x:%04x", chip.Transport, chip.FTDIVendor, chip.FTDIProduct)
	}
	return fmt.Sprint(chip.Transport, ":", chip.Port)
}

func (g *Governor) startController() error {
	chip := g.Config.Chip
	name := controllerName(chip)
	if g.Context.InUse(name) {
		return fmt.Errorf("%s: %w", name, ErrControllerInUse)
	}
	port, err := g.OpenPort(chip)
	if err != nil {
		return fmt.Errorf("open %s: %w", chip.Port, err)
	}
	controller := bm1397.NewBM1397Controller(name, link.NewChipLink(name, port, chip.WriteTimeout), chip, g.Stats)
	ctx, cancel := context.WithTimeout(context.Background(), ResetTimeout)
	defer cancel()
	if err := controller.Reset(ctx); err != nil {
		controller.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	controller.Start()
	g.controller = controller
	g.Context.Register(controller)
	return nil
}

func (g *Governor) startCron() error {
	g.cron = cron.New()
	if _, err := g.cron.AddFunc(g.Config.StatsSchedule, g.reportStats); err != nil {
		return fmt.Errorf("stats schedule: %w", err)
	}
	g.cron.Start()
	return nil
}

func (g *Governor) startWatcher() {
	if g.ConfigPath == "" {
		return
	}
	watcher, err := utils.NewFileWatcher(g.ConfigPath, utils.DefaultWatchDebounce, g.ReloadConfig)
	if err != nil {
		log.WithFields(log.Fields{
			"path":  g.ConfigPath,
			"error": err,
		}).Warnln("Config changes will not be applied")
		if watcher != nil {
			_ = watcher.Close()
		}
		return
	}
	g.watcher = watcher
}

func (g *Governor) Stop() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if g.cron != nil {
		<-g.cron.Stop().Done()
	}
	if g.Pool != nil {
		g.Pool.Stop()
	}
	close(g.workQuit)
	g.wg.Wait()
	if g.controller != nil {
		g.Context.Unregister(g.controller)
		g.controller.Close()
	}
	g.Context.Close()
	g.reportStats()
	if g.Store != nil {
		if err := g.Store.Close(); err != nil {
			log.WithError(err).Warnln("Error closing storage")
		}
	}
}

func (g *Governor) workReceiver(blocks <-chan *base.BlockCandidate) {
	defer g.wg.Done()
	for {
		select {
		case <-g.workQuit:
			return
		case work := <-g.PoolWork:
			g.Context.UpdateWork(work)
		case candidate, ok := <-blocks:
			if !ok {
				blocks = nil
				continue
			}
			g.recordBlock(candidate)
		}
	}
}

func (g *Governor) recordBlock(candidate *base.BlockCandidate) {
	log.WithFields(log.Fields{
		"hash":       utils.HashString(candidate.Hash),
		"pool":       candidate.PoolName,
		"jobId":      candidate.JobId,
		"difficulty": candidate.Difficulty,
	}).Warnln("Block candidate")
	if g.Store == nil {
		return
	}
	if err := g.Store.WriteBlock(&storage.BlockRecord{
		Time:       candidate.Time,
		Pool:       candidate.PoolName,
		JobId:      candidate.JobId,
		Hash:       utils.HashString(candidate.Hash),
		Difficulty: float64(candidate.Difficulty),
		Nonce:      uint32(candidate.Nonce),
		Version:    uint32(candidate.Version),
		Header:     candidate.Header[:],
	}); err != nil {
		log.WithError(err).Warnln("Error saving block candidate")
	}
}

func (g *Governor) reportStats() {
	snapshot := g.Stats.Snapshot()
	fields := snapshot.Fields()
	if g.controller != nil {
		fields["controller"] = g.controller.String()
		fields["frequency"] = g.controller.Frequency()
		fields["expected"] = g.controller.HashRate().String()
	}
	log.WithFields(fields).Infoln("Statistics")
	if g.Store == nil {
		return
	}
	if err := g.Store.SaveSnapshot(snapshot); err != nil {
		log.WithError(err).Warnln("Error saving statistics")
	}
}

// ReloadConfig re-reads the configuration file and applies a changed chip frequency.
func (g *Governor) ReloadConfig() {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		log.WithFields(log.Fields{
			"path":  g.ConfigPath,
			"error": err,
		}).Warnln("Ignoring invalid config")
		return
	}
	g.configMtx.Lock()
	defer g.configMtx.Unlock()
	if cfg.Chip.Frequency == g.Config.Chip.Frequency {
		return
	}
	log.WithFields(log.Fields{
		"from": g.Config.Chip.Frequency,
		"to":   cfg.Chip.Frequency,
	}).Infoln("Frequency changed in config")
	g.Config.Chip.Frequency = cfg.Chip.Frequency
	ctx, cancel := context.WithTimeout(context.Background(), SetFrequencyTimeout)
	defer cancel()
	g.Context.SetFrequency(ctx, cfg.Chip.Frequency)
}
