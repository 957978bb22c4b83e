package protocol

import (
	"errors"
	"github.com/epiclabs-io/elastic"
	"github.com/fernandosanchezjr/goaxeminer/utils"
)

type SetDifficulty struct {
	Difficulty float64
}

func NewSetDifficulty(reply *Reply) (*SetDifficulty, error) {
	sd := &SetDifficulty{}
	if err := reply.HasError(); err != nil {
		return nil, err
	}
	if len(reply.Params) != 1 {
		return nil, errors.New("invalid SetDifficulty parameters")
	}
	if err := elastic.Set(&sd.Difficulty, reply.Params[0]); err != nil {
		return nil, err
	}
	if sd.Difficulty <= 0 {
		return nil, errors.New("invalid difficulty")
	}
	return sd, nil
}

func (sd *SetDifficulty) String() string {
	return utils.Difficulty(sd.Difficulty).String()
}
