package stratum

import (
	"encoding/json"
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/stratum/protocol"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"github.com/stretchr/testify/require"
	"net"
	"testing"
	"time"
)

const fakeNotify = `{"id":null,"method":"mining.notify","params":["job1",` +
	`"ea2bc5140f45747839fce96b74bafe832804ed98000c81720000000000000000","01000000","ffffffff",[],` +
	`"20000000","171007ea","5f4c4275",true]}`

type fakePool struct {
	listener net.Listener
	submits  chan []interface{}
}

func newFakePool(t *testing.T) *fakePool {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fp := &fakePool{listener: listener, submits: make(chan []interface{}, 8)}
	t.Cleanup(func() { _ = listener.Close() })
	go fp.serve()
	return fp
}

func (fp *fakePool) Addr() string {
	return fp.listener.Addr().String()
}

func (fp *fakePool) serve() {
	conn, err := fp.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	decoder := json.NewDecoder(conn)
	for {
		var request struct {
			Id     uint64        `json:"id"`
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		if err := decoder.Decode(&request); err != nil {
			return
		}
		switch request.Method {
		case "mining.subscribe":
			fmt.Fprintf(conn, `{"id":%d,"result":[[["mining.notify","1"]],"2c650302",4],"error":null}`+"\n", request.Id)
		case "mining.configure":
			fmt.Fprintf(conn, `{"id":%d,"result":{"version-rolling":true,"version-rolling.mask":"1fffe000"},"error":null}`+"\n",
				request.Id)
		case "mining.authorize":
			fmt.Fprintf(conn, `{"id":%d,"result":true,"error":null}`+"\n", request.Id)
			fmt.Fprint(conn, `{"id":null,"method":"mining.set_difficulty","params":[2048]}`+"\n")
			fmt.Fprint(conn, fakeNotify+"\n")
		case "mining.submit":
			fp.submits <- request.Params
			if request.Params[1] == "job1" {
				fmt.Fprintf(conn, `{"id":%d,"result":true,"error":null}`+"\n", request.Id)
			} else {
				fmt.Fprintf(conn, `{"id":%d,"result":null,"error":[21,"Job not found",null]}`+"\n", request.Id)
			}
		}
	}
}

type shareEvent struct {
	accepted bool
	reason   string
}

type testListener chan shareEvent

func (tl testListener) ShareAccepted(_ string, _ utils.Difficulty) {
	tl <- shareEvent{accepted: true}
}

func (tl testListener) ShareRejected(_ string, _ utils.Difficulty, reason string) {
	tl <- shareEvent{reason: reason}
}

func receiveWork(t *testing.T, workChan PoolWorkChan) *Work {
	select {
	case work := <-workChan:
		return work
	case <-time.After(5 * time.Second):
		t.Fatal("no work received")
		return nil
	}
}

func receiveShare(t *testing.T, listener testListener) shareEvent {
	select {
	case event := <-listener:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("no share result received")
		return shareEvent{}
	}
}

func TestPool_Session(t *testing.T) {
	fp := newFakePool(t)
	workChan := make(PoolWorkChan, 4)
	listener := make(testListener, 4)
	pool := NewPool([]config.Pool{{URL: fp.Addr(), User: "worker", Pass: "x"}}, workChan, listener)
	pool.Start()
	defer pool.Stop()

	work := receiveWork(t, workChan)
	require.Equal(t, "job1", work.JobId)
	require.Equal(t, 2048.0, work.Difficulty)
	require.Equal(t, []byte{0x2c, 0x65, 0x03, 0x02}, work.ExtraNonce1)
	require.Equal(t, 4, work.ExtraNonce2Len)
	require.True(t, work.VersionRolling)
	require.Equal(t, utils.Version(0x1fffe000), work.VersionRollingMask)
	require.True(t, work.CleanJobs)
	require.NoError(t, work.Validate())

	work.SubmitChan <- protocol.NewSubmit(work.JobId, work.ExtraNonce2(1), work.NTime, 0x11223344, 0x2000, true, 2048)
	params := <-fp.submits
	require.Equal(t, []interface{}{"worker", "job1", "00000001", "5f4c4275", "11223344", "00002000"}, params)
	require.True(t, receiveShare(t, listener).accepted)

	work.SubmitChan <- protocol.NewSubmit("stale", work.ExtraNonce2(2), work.NTime, 1, 0, true, 2048)
	<-fp.submits
	event := receiveShare(t, listener)
	require.False(t, event.accepted)
	require.Equal(t, "Job not found", event.reason)
}

func TestPool_Failover(t *testing.T) {
	unused, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddress := unused.Addr().String()
	require.NoError(t, unused.Close())

	fp := newFakePool(t)
	workChan := make(PoolWorkChan, 4)
	pool := NewPool([]config.Pool{
		{URL: deadAddress, User: "primary"},
		{URL: fp.Addr(), User: "backup"},
	}, workChan, nil)
	pool.RetryTimeout = 10 * time.Millisecond
	pool.Start()
	defer pool.Stop()

	work := receiveWork(t, workChan)
	require.Equal(t, "job1", work.JobId)
	require.Equal(t, "backup@"+fp.Addr(), work.PoolName)
}
