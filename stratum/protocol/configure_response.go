package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"github.com/epiclabs-io/elastic"
	"github.com/fernandosanchezjr/goaxeminer/utils"
)

type ConfigureResponse struct {
	VersionRolling     bool
	VersionRollingMask utils.Version
}

func NewConfigureResponse(reply *Reply) (*ConfigureResponse, error) {
	cr := &ConfigureResponse{}
	if err := reply.HasError(); err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := elastic.Set(&result, reply.Result); err != nil {
		return nil, err
	}
	if err := elastic.Set(&cr.VersionRolling, result["version-rolling"]); err != nil {
		return nil, err
	}
	if !cr.VersionRolling {
		return cr, nil
	}
	var versionRollingMask string
	if err := elastic.Set(&versionRollingMask, result["version-rolling.mask"]); err != nil {
		return nil, err
	}
	mask, err := ParseVersionMask(versionRollingMask)
	if err != nil {
		return nil, err
	}
	cr.VersionRollingMask = mask
	return cr, nil
}

func ParseVersionMask(value string) (utils.Version, error) {
	data, err := hex.DecodeString(value)
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, errors.New("invalid version mask")
	}
	return utils.Version(binary.BigEndian.Uint32(data)), nil
}
