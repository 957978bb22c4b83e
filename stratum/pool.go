package stratum

import (
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/stratum/protocol"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

type PoolState int

const (
	Disconnected PoolState = iota
	Connected
	Subscribing
	Subscribed
	Configuring
	Configured
	Authorizing
	Authorized
)

const (
	RetryTimeout       = 5 * time.Second
	MaxCommandAge      = 15 * time.Minute
	CleanupTime        = 1 * time.Minute
	MaxPendingSubmits  = 1024
	MaxConnectFailures = 3
)

// ShareListener is told about the outcome of every submitted share.
type ShareListener interface {
	ShareAccepted(pool string, difficulty utils.Difficulty)
	ShareRejected(pool string, difficulty utils.Difficulty, reason string)
}

// Pool keeps a stratum session with the first reachable pool of its list, moving on
// to the next one after MaxConnectFailures consecutive failures.
type Pool struct {
	configs         []config.Pool
	current         int
	failures        int
	quit            chan struct{}
	conn            *Connection
	status          PoolState
	wg              sync.WaitGroup
	mtx             sync.Mutex
	pendingCommands map[uint64]protocol.IMethod
	subscription    *protocol.SubscribeResponse
	setDifficulty   *protocol.SetDifficulty
	notify          *protocol.Notify
	configuration   *protocol.ConfigureResponse
	workChan        PoolWorkChan
	SubmitChan      SubmitChan
	listener        ShareListener
	RetryTimeout    time.Duration
}

func NewPool(configs []config.Pool, workChan PoolWorkChan, listener ShareListener) *Pool {
	return &Pool{
		configs:         configs,
		status:          Disconnected,
		pendingCommands: make(map[uint64]protocol.IMethod),
		workChan:        workChan,
		SubmitChan:      make(SubmitChan, MaxPendingSubmits),
		listener:        listener,
		RetryTimeout:    RetryTimeout,
	}
}

func (p *Pool) Start() {
	if p.quit != nil {
		return
	}
	p.quit = make(chan struct{})
	p.wg.Add(1)
	go p.loop()
}

func (p *Pool) Stop() {
	if p.quit == nil {
		return
	}
	log.WithField("pool", p.String()).Infoln("Stopping pool")
	close(p.quit)
	p.wg.Wait()
	p.quit = nil
}

func (p *Pool) Config() config.Pool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.configs[p.current]
}

func (p *Pool) String() string {
	return p.Config().String()
}

func (p *Pool) cleanPendingCommands() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for id, cmd := range p.pendingCommands {
		if cmd.Age() >= MaxCommandAge {
			delete(p.pendingCommands, id)
		}
	}
}

func (p *Pool) loop() {
	var submit *protocol.Submit
	var reply *protocol.Reply
	var err error
	cleanupTicker := time.NewTicker(CleanupTime)
	defer p.wg.Done()
	defer cleanupTicker.Stop()
	for {
		if p.status == Disconnected {
			if !p.handleDisconnected() {
				return
			}
			continue
		}
		select {
		case <-p.quit:
			p.disconnect()
			return
		case <-cleanupTicker.C:
			p.cleanPendingCommands()
		case reply = <-p.conn.Replies():
			if reply.IsMethod() {
				p.handleMethodCall(reply)
			} else {
				p.handleMethodResponse(reply)
			}
		case err = <-p.conn.Errors():
			log.WithFields(log.Fields{
				"pool":  p.String(),
				"error": err,
			}).Warnln("Pool connection lost")
			p.connectionFailed()
		case submit = <-p.SubmitChan:
			p.handleSubmit(submit)
		}
	}
}

// retryTimeout waits before the next connection attempt and reports false on quit.
func (p *Pool) retryTimeout() bool {
	log.WithField("pool", p.String()).Infoln("Retrying in", p.RetryTimeout)
	select {
	case <-p.quit:
		return false
	case <-time.After(p.RetryTimeout):
		return true
	}
}

func (p *Pool) disconnect() {
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.WithFields(log.Fields{
				"pool":  p.String(),
				"error": err,
			}).Warnln("Pool disconnect error")
		}
	}
	p.conn = nil
	p.status = Disconnected
	p.mtx.Lock()
	p.pendingCommands = make(map[uint64]protocol.IMethod)
	p.mtx.Unlock()
}

func (p *Pool) connectionFailed() {
	p.disconnect()
	p.failures += 1
	if p.failures < MaxConnectFailures || len(p.configs) < 2 {
		return
	}
	p.failures = 0
	p.mtx.Lock()
	previous := p.configs[p.current]
	p.current = (p.current + 1) % len(p.configs)
	next := p.configs[p.current]
	p.mtx.Unlock()
	log.WithFields(log.Fields{
		"from": previous.String(),
		"to":   next.String(),
	}).Warnln("Switching pool")
}

func (p *Pool) handleDisconnected() bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	cfg := p.Config()
	conn, err := NewConnection(cfg.URL)
	if err != nil {
		log.WithFields(log.Fields{
			"pool":  cfg.String(),
			"error": err,
		}).Warnln("Error connecting to pool")
		p.connectionFailed()
		return p.retryTimeout()
	}
	p.conn = conn
	p.status = Connected
	p.subscription = nil
	p.configuration = nil
	p.setDifficulty = nil
	p.notify = nil
	log.WithField("pool", cfg.String()).Infoln("Connected")
	p.call(protocol.NewSubscribe(), Subscribing)
	return true
}

func (p *Pool) addPendingCommand(cmd protocol.IMethod) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.pendingCommands[cmd.GetId()] = cmd
}

func (p *Pool) popPendingCommand(id uint64) (protocol.IMethod, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	method, ok := p.pendingCommands[id]
	delete(p.pendingCommands, id)
	return method, ok
}

func (p *Pool) call(cmd protocol.IMethod, next PoolState) {
	if err := p.conn.Call(cmd); err != nil {
		log.WithFields(log.Fields{
			"pool":  p.String(),
			"error": err,
		}).Warnln("Pool call error")
		p.connectionFailed()
		return
	}
	p.addPendingCommand(cmd)
	p.status = next
}

func (p *Pool) handleSubmit(submit *protocol.Submit) {
	if p.status != Authorized {
		log.WithField("job", submit.JobId()).Warnln("Dropping share while pool is unavailable")
		return
	}
	submit.SetWorker(p.Config().User)
	p.call(submit, Authorized)
}

func (p *Pool) handleMethodResponse(reply *protocol.Reply) {
	method, ok := p.popPendingCommand(reply.Id)
	if !ok {
		log.WithField("pool", p.String()).Warnln("Received unknown reply:", reply.Id)
		return
	}
	switch m := method.(type) {
	case *protocol.Subscribe:
		if sr, err := protocol.NewSubscribeResponse(reply); err != nil {
			log.WithError(err).Warnln("Subscribe failed")
			p.connectionFailed()
		} else {
			p.subscription = sr
			p.status = Subscribed
			p.call(protocol.NewConfigure(), Configuring)
		}
	case *protocol.Configure:
		if cr, err := protocol.NewConfigureResponse(reply); err != nil {
			log.WithError(err).Infoln("Version rolling unavailable")
			p.configuration = &protocol.ConfigureResponse{}
		} else {
			p.configuration = cr
		}
		p.status = Configured
		cfg := p.Config()
		p.call(protocol.NewAuthorize(cfg.User, cfg.Pass), Authorizing)
	case *protocol.Authorize:
		if ar, err := protocol.NewBoolResponse(reply); err != nil || !ar.Result {
			log.WithFields(log.Fields{
				"pool":  p.String(),
				"error": err,
			}).Warnln("Authorization failed")
			p.connectionFailed()
		} else {
			p.status = Authorized
			p.failures = 0
			log.WithField("pool", p.String()).Infoln("Authorized")
			if suggested := p.Config().SuggestedDifficulty; suggested > 0 {
				p.call(protocol.NewSuggestDifficulty(suggested), Authorized)
			}
			p.processWork(false)
		}
	case *protocol.Submit:
		p.handleSubmitResponse(m, reply)
	case *protocol.SuggestDifficulty:
		if err := reply.HasError(); err != nil {
			log.WithError(err).Debugln("Suggest difficulty rejected")
		}
	default:
		log.WithField("pool", p.String()).Warnln("Received unknown response:", reply.Id)
	}
}

func (p *Pool) handleSubmitResponse(submit *protocol.Submit, reply *protocol.Reply) {
	br, err := protocol.NewBoolResponse(reply)
	if err == nil && br.Result {
		log.WithFields(log.Fields{
			"pool":       p.String(),
			"job":        submit.JobId(),
			"difficulty": submit.Difficulty,
		}).Infoln("Share accepted")
		if p.listener != nil {
			p.listener.ShareAccepted(p.String(), submit.Difficulty)
		}
		return
	}
	reason := "rejected"
	if err != nil {
		reason = err.Error()
	}
	log.WithFields(log.Fields{
		"pool":   p.String(),
		"job":    submit.JobId(),
		"reason": reason,
	}).Warnln("Share rejected")
	if p.listener != nil {
		p.listener.ShareRejected(p.String(), submit.Difficulty, reason)
	}
}

func (p *Pool) handleMethodCall(reply *protocol.Reply) {
	switch reply.MethodName {
	case "mining.set_difficulty":
		p.handleMiningSetDifficulty(reply)
	case "mining.notify":
		p.handleMiningNotify(reply)
	case "mining.set_version_mask":
		p.handleSetVersionMask(reply)
	default:
		log.WithField("pool", p.String()).Debugln("Received unknown remote method:", reply.MethodName)
	}
}

func (p *Pool) handleMiningSetDifficulty(reply *protocol.Reply) {
	if sd, err := protocol.NewSetDifficulty(reply); err != nil {
		log.WithError(err).Warnln("Invalid set_difficulty")
	} else {
		log.WithFields(log.Fields{
			"pool":       p.String(),
			"difficulty": sd,
		}).Infoln("Set difficulty")
		p.setDifficulty = sd
		p.processWork(false)
	}
}

func (p *Pool) handleMiningNotify(reply *protocol.Reply) {
	if n, err := protocol.NewNotify(reply); err != nil {
		log.WithError(err).Warnln("Invalid notify")
	} else {
		p.notify = n
		p.processWork(n.CleanJobs)
	}
}

func (p *Pool) handleSetVersionMask(reply *protocol.Reply) {
	if svm, err := protocol.NewSetVersionMask(reply); err != nil {
		log.WithError(err).Warnln("Invalid set_version_mask")
	} else {
		if p.configuration == nil {
			p.configuration = &protocol.ConfigureResponse{}
		}
		p.configuration.VersionRolling = svm.VersionRollingMask != 0
		p.configuration.VersionRollingMask = svm.VersionRollingMask
		p.processWork(false)
	}
}

func (p *Pool) processWork(cleanJobs bool) {
	if p.status != Authorized || p.subscription == nil || p.setDifficulty == nil || p.notify == nil {
		return
	}
	work := NewWork(p.subscription, p.configuration, p.setDifficulty, p.notify)
	work.CleanJobs = cleanJobs
	work.SubmitChan = p.SubmitChan
	work.PoolName = p.String()
	select {
	case p.workChan <- work:
	default:
		log.WithField("job", work.JobId).Warnln("Work channel full, dropping update")
	}
}
