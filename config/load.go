package config

import (
	"flag"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"io/ioutil"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "~/.goaxeminer/config.yaml", "specify config file")
}

// Path is the expanded location of the configuration file.
func Path() string {
	expanded, err := utils.ExpandPath(configPath)
	if err != nil {
		return configPath
	}
	return expanded
}

func LoadConfig() (*Config, error) {
	return Load(Path())
}

// Load reads, defaults and validates the configuration at filePath.
func Load(filePath string) (*Config, error) {
	c := &Config{}
	var data []byte
	var err error
	log.WithField("path", filePath).Infoln("Loading config")
	if data, err = ioutil.ReadFile(filePath); err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	c.SetDefaults()
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
