package presets

import (
	"os"
	"path/filepath"
	"time"

	"github.com/replicasync/replicasync/config"
)

func init() {
	register("standalone", standalone())
	register("debug", debug())
}

// standalone trains a single peer against itself, useful to exercise the
// whole pipeline without a network.
func standalone() config.Config {
	conf := config.DefaultConfig()
	conf.DataDir = filepath.Join(os.TempDir(), "replicasync")
	conf.Group.Size = 1
	conf.P2P.Peers = nil
	conf.Train.SyncInterval = 100
	conf.Train.MaxSteps = 1000
	return conf
}

// debug keeps runs small and their logs out of the working tree.
func debug() config.Config {
	conf := standalone()
	conf.Env.NumEnvs = 3
	conf.Run.LogDir = filepath.Join(os.TempDir(), "replicasync-logs")
	conf.Train.SyncInterval = 10
	conf.Train.MaxSteps = 100
	conf.Train.SummaryFrequency = 10
	conf.Train.SummaryRate = 0
	conf.Train.Verify = true
	conf.LOGGING.AppLoggerLevel = "debug"
	conf.LOGGING.GroupLoggerLevel = "debug"
	conf.LOGGING.ParamSyncLoggerLevel = "debug"
	conf.LOGGING.TrainerLoggerLevel = "debug"
	conf.P2P.DialTimeout = 30 * time.Second
	return conf
}
