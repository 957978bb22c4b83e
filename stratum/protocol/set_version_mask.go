package protocol

import (
	"errors"
	"github.com/epiclabs-io/elastic"
	"github.com/fernandosanchezjr/goaxeminer/utils"
)

type SetVersionMask struct {
	VersionRollingMask utils.Version
}

func NewSetVersionMask(reply *Reply) (*SetVersionMask, error) {
	svm := &SetVersionMask{}
	if err := reply.HasError(); err != nil {
		return nil, err
	}
	if len(reply.Params) != 1 {
		return nil, errors.New("invalid SetVersionMask parameters")
	}
	var versionRollingMask string
	if err := elastic.Set(&versionRollingMask, reply.Params[0]); err != nil {
		return nil, err
	}
	mask, err := ParseVersionMask(versionRollingMask)
	if err != nil {
		return nil, err
	}
	svm.VersionRollingMask = mask
	return svm, nil
}
