package protocol

import (
	"encoding/hex"
	"github.com/fernandosanchezjr/goaxeminer/utils"
)

type Submit struct {
	Difficulty utils.Difficulty `json:"-"`
	*Method
}

// NewSubmit builds a share submission. The worker name is filled in by the pool
// connection that sends it.
func NewSubmit(
	jobId string,
	extraNonce2 []byte,
	ntime utils.NTime,
	nonce utils.Nonce32,
	versionBits utils.Version,
	versionRolling bool,
	difficulty utils.Difficulty,
) *Submit {
	params := []interface{}{
		"",
		jobId,
		hex.EncodeToString(extraNonce2),
		ntime.String(),
		nonce.String(),
	}
	if versionRolling {
		params = append(params, versionBits.String())
	}
	return &Submit{
		Difficulty: difficulty,
		Method:     NewMethod("mining.submit", params...),
	}
}

func (s *Submit) JobId() string {
	jobId, _ := s.Params[1].(string)
	return jobId
}

func (s *Submit) SetWorker(worker string) {
	s.Params[0] = worker
}
