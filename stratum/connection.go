package stratum

import (
	"encoding/json"
	"github.com/fernandosanchezjr/goaxeminer/stratum/protocol"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DialTimeout     = 5 * time.Second
	KeepAlivePeriod = 30 * time.Second
	WriteTimeout    = 10 * time.Second
)

// Connection is a line delimited JSON-RPC session with a pool.
type Connection struct {
	conn    net.Conn
	reader  *json.Decoder
	writer  *json.Encoder
	writeMu sync.Mutex
	id      uint64
	replies chan *protocol.Reply
	errors  chan error
	done    chan struct{}
	once    sync.Once
}

func NewConnection(address string) (*Connection, error) {
	dialer := net.Dialer{Timeout: DialTimeout, KeepAlive: KeepAlivePeriod}
	rawConn, err := dialer.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	c := &Connection{
		conn:    rawConn,
		reader:  json.NewDecoder(rawConn),
		writer:  json.NewEncoder(rawConn),
		replies: make(chan *protocol.Reply, 64),
		errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Connection) readLoop() {
	for {
		r := &protocol.Reply{}
		if err := c.reader.Decode(r); err != nil {
			select {
			case c.errors <- err:
			default:
			}
			return
		}
		select {
		case c.replies <- r:
		case <-c.done:
			return
		}
	}
}

// Replies delivers every message received from the pool.
func (c *Connection) Replies() <-chan *protocol.Reply {
	return c.replies
}

// Errors delivers the read error that ended the session.
func (c *Connection) Errors() <-chan error {
	return c.errors
}

func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) NextId() uint64 {
	return atomic.AddUint64(&c.id, 1)
}

func (c *Connection) Call(command protocol.IMethod) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	command.SetId(c.NextId())
	if err := c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return c.writer.Encode(command)
}
