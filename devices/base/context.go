package base

import (
	"context"
	"github.com/fernandosanchezjr/goaxeminer/stratum"
	log "github.com/sirupsen/logrus"
	"sync"
)

// Context tracks the running controllers and fans pool work out to them.
type Context struct {
	controllersMtx sync.Mutex
	controllers    map[string]IController
}

func NewContext() *Context {
	return &Context{controllers: map[string]IController{}}
}

func (c *Context) InUse(name string) bool {
	c.controllersMtx.Lock()
	defer c.controllersMtx.Unlock()
	_, found := c.controllers[name]
	return found
}

func (c *Context) Register(controller IController) {
	c.controllersMtx.Lock()
	defer c.controllersMtx.Unlock()
	c.controllers[controller.String()] = controller
}

func (c *Context) Unregister(controller IController) {
	c.controllersMtx.Lock()
	defer c.controllersMtx.Unlock()
	delete(c.controllers, controller.String())
}

func (c *Context) Controllers() []IController {
	c.controllersMtx.Lock()
	defer c.controllersMtx.Unlock()
	found := make([]IController, 0, len(c.controllers))
	for _, ct := range c.controllers {
		found = append(found, ct)
	}
	return found
}

func (c *Context) UpdateWork(work *stratum.Work) {
	for _, ct := range c.Controllers() {
		ct.UpdateWork(work.Clone())
	}
}

// SetFrequency reprograms the hash clock of every controller.
func (c *Context) SetFrequency(ctx context.Context, frequency float64) {
	for _, ct := range c.Controllers() {
		if err := ct.SetFrequency(ctx, frequency); err != nil {
			log.WithFields(log.Fields{
				"controller": ct.String(),
				"error":      err,
			}).Warnln("Error setting frequency")
		}
	}
}

func (c *Context) Close() {
	c.controllersMtx.Lock()
	defer c.controllersMtx.Unlock()
	for _, ct := range c.controllers {
		ct.Close()
	}
	c.controllers = map[string]IController{}
}
