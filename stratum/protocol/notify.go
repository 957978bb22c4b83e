package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/epiclabs-io/elastic"
	"github.com/fernandosanchezjr/goaxeminer/utils"
)

var ErrNotifyParams = errors.New("invalid Notify params")

type Notify struct {
	JobId          string
	PrevHash       []byte
	CoinBase1      []byte
	CoinBase2      []byte
	MerkleBranches [][]byte
	Version        utils.Version
	NBits          utils.NBits
	NTime          utils.NTime
	CleanJobs      bool
}

func decodeHexParam(param interface{}, name string) ([]byte, error) {
	var value string
	if err := elastic.Set(&value, param); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

func decodeUint32Param(param interface{}, name string) (uint32, error) {
	data, err := decodeHexParam(param, name)
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("%s: %w", name, ErrNotifyParams)
	}
	return binary.BigEndian.Uint32(data), nil
}

func NewNotify(reply *Reply) (*Notify, error) {
	n := &Notify{}
	if len(reply.Params) < 9 {
		return nil, ErrNotifyParams
	}
	var err error
	var value uint32
	var merkleBranch []string
	if err = elastic.Set(&n.JobId, reply.Params[0]); err != nil {
		return nil, err
	}
	if n.PrevHash, err = decodeHexParam(reply.Params[1], "prevhash"); err != nil {
		return nil, err
	}
	if n.CoinBase1, err = decodeHexParam(reply.Params[2], "coinb1"); err != nil {
		return nil, err
	}
	if n.CoinBase2, err = decodeHexParam(reply.Params[3], "coinb2"); err != nil {
		return nil, err
	}
	if err = elastic.Set(&merkleBranch, reply.Params[4]); err != nil {
		return nil, err
	}
	n.MerkleBranches = make([][]byte, len(merkleBranch))
	for pos, branch := range merkleBranch {
		if data, err := hex.DecodeString(branch); err != nil {
			return nil, err
		} else {
			n.MerkleBranches[pos] = data
		}
	}
	if value, err = decodeUint32Param(reply.Params[5], "version"); err != nil {
		return nil, err
	}
	n.Version = utils.Version(value)
	if value, err = decodeUint32Param(reply.Params[6], "nbits"); err != nil {
		return nil, err
	}
	n.NBits = utils.NBits(value)
	if value, err = decodeUint32Param(reply.Params[7], "ntime"); err != nil {
		return nil, err
	}
	n.NTime = utils.NTime(value)
	if err = elastic.Set(&n.CleanJobs, reply.Params[8]); err != nil {
		return nil, err
	}
	return n, nil
}
