package governor

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/devices/link"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net"
	"path"
	"testing"
)

const (
	readAddressHex = "55aa520500000a"
	chipIdHex      = "aa5513971800000006"
	configTemplate = "pools:\n  - url: %s\n    user: worker\n    pass: x\nchip:\n  frequency: %d\n"
)

func singleChipPort(t *testing.T) *link.TestPort {
	readAddress, err := hex.DecodeString(readAddressHex)
	require.NoError(t, err)
	chipId, err := hex.DecodeString(chipIdHex)
	require.NoError(t, err)
	port := link.NewTestPort()
	port.Responder = func(frame []byte) []byte {
		if bytes.Equal(frame, readAddress) {
			return chipId
		}
		return nil
	}
	return port
}

// closedAddress returns an address nothing listens on.
func closedAddress(t *testing.T) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())
	return address
}

func writeConfig(t *testing.T, filePath string, address string, frequency int) {
	data := []byte(fmt.Sprintf(configTemplate, address, frequency))
	require.NoError(t, ioutil.WriteFile(filePath, data, 0600))
}

func testGovernor(t *testing.T, frequency int) (*Governor, string) {
	configPath := path.Join(t.TempDir(), "config.yaml")
	writeConfig(t, configPath, closedAddress(t), frequency)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	g := NewGovernor(cfg, configPath)
	port := singleChipPort(t)
	g.OpenPort = func(chip config.Chip) (link.Port, error) {
		return port, nil
	}
	return g, configPath
}

func TestGovernor_StartStop(t *testing.T) {
	g, _ := testGovernor(t, 485)
	require.NoError(t, g.Start())
	require.Len(t, g.Context.Controllers(), 1)
	require.Equal(t, 485.0, g.controller.Frequency())
	g.Stop()
	require.Len(t, g.Context.Controllers(), 0)
}

func TestGovernor_ControllerInUse(t *testing.T) {
	g, _ := testGovernor(t, 485)
	require.NoError(t, g.Start())
	name := g.controller.String()
	require.True(t, g.Context.InUse(name))
	opened := 0
	g.OpenPort = func(chip config.Chip) (link.Port, error) {
		opened++
		return link.NewTestPort(), nil
	}
	err := g.startController()
	require.True(t, errors.Is(err, ErrControllerInUse))
	require.Equal(t, 0, opened)
	g.Stop()
	require.False(t, g.Context.InUse(name))
}

func TestGovernor_ReloadConfig(t *testing.T) {
	g, configPath := testGovernor(t, 485)
	require.NoError(t, g.Start())
	defer g.Stop()
	writeConfig(t, configPath, g.Config.Pools[0].URL, 500)
	g.ReloadConfig()
	require.Equal(t, 500.0, g.controller.Frequency())
	require.Equal(t, 500.0, g.Config.Chip.Frequency)
}

func TestGovernor_ResetFailure(t *testing.T) {
	g, _ := testGovernor(t, 485)
	g.OpenPort = func(chip config.Chip) (link.Port, error) {
		return link.NewTestPort(), nil
	}
	require.Error(t, g.Start())
	require.Len(t, g.Context.Controllers(), 0)
}

func TestOpenPort_UnknownTransport(t *testing.T) {
	_, err := OpenPort(config.Chip{Transport: "carrier-pigeon"})
	require.Error(t, err)
}
