package main

import (
	"flag"
	"github.com/fernandosanchezjr/goaxeminer/config"
	"github.com/fernandosanchezjr/goaxeminer/governor"
	"github.com/fernandosanchezjr/goaxeminer/logging"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	log "github.com/sirupsen/logrus"
	"os"
	"runtime/pprof"
	"runtime/trace"
)

var cpuProfile bool
var tracing bool

func init() {
	flag.BoolVar(&cpuProfile, "cpu-profile", cpuProfile, "enable cpu profiling")
	flag.BoolVar(&tracing, "trace", tracing, "enable tracing")
}

func main() {
	flag.Parse()
	logging.SetupLogger()
	defer logging.Close()
	if cpuProfile {
		f, err := os.Create("goaxeminer.prof")
		if err != nil {
			log.Fatal(err)
		}
		if err = pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}
	if tracing {
		f, err := os.Create("goaxeminer.trace")
		if err != nil {
			log.Fatal(err)
		}
		if err := trace.Start(f); err != nil {
			log.Fatal(err)
		}
		defer trace.Stop()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Error loading config")
	}
	gov := governor.NewGovernor(cfg, config.Path())
	if err := gov.Start(); err != nil {
		log.WithError(err).Fatal("Error starting")
	}
	sig := utils.Wait()
	log.WithField("signal", sig.String()).Infoln("Shutting down")
	gov.Stop()
}
