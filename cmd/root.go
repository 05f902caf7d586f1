package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/replicasync/replicasync/config"
	"github.com/replicasync/replicasync/config/presets"
)

// AddFlags adds the peer flags to flagSet. Flags write straight into cfg,
// the returned pointer receives the config file location.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	configPath = flagSet.StringP("config", "c", "", "load configuration from file")
	flagSet.StringVarP(&cfg.Preset, "preset", "p", cfg.Preset,
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))

	/** ======================== BaseConfig Flags ========================== **/
	flagSet.StringVarP(&cfg.DataDir, "data-dir", "d",
		cfg.DataDir, "directory with the peer identity and lock")
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as JSON instead of plain text")
	flagSet.BoolVar(&cfg.CollectMetrics, "metrics",
		cfg.CollectMetrics, "serve prometheus metrics")
	flagSet.IntVar(&cfg.MetricsPort, "metrics-port",
		cfg.MetricsPort, "metric server port")
	flagSet.StringVar(&cfg.Push.URL, "metrics-push",
		cfg.Push.URL, "push metrics to url")
	flagSet.DurationVar(&cfg.Push.Period, "metrics-push-period",
		cfg.Push.Period, "push period")
	flagSet.StringVar(&cfg.ProfilerURL, "profiler-url",
		cfg.ProfilerURL, "send profiler data to certain url, if no url no profiling will be sent, format: http://<IP>:<PORT>")
	flagSet.StringVar(&cfg.ProfilerName, "profiler-name",
		cfg.ProfilerName, "the name to use when sending profiles")

	/** ======================== Group Flags ========================== **/
	flagSet.StringVar(&cfg.Group.Name, "group",
		cfg.Group.Name, "name of the process group")
	flagSet.IntVar(&cfg.Group.Size, "size",
		cfg.Group.Size, "number of peers in the group")

	/** ======================== P2P Flags ========================== **/
	flagSet.StringVar(&cfg.P2P.Listen, "listen",
		cfg.P2P.Listen, "address for listening")
	flagSet.StringSliceVar(&cfg.P2P.Peers, "peers",
		cfg.P2P.Peers, "multiaddrs of all group members in rank order")
	flagSet.DurationVar(&cfg.P2P.DialTimeout, "dial-timeout",
		cfg.P2P.DialTimeout, "how long to wait for the other members to come up")
	flagSet.IntVar(&cfg.P2P.MaxMessageSize, "max-message-size",
		cfg.P2P.MaxMessageSize, "largest frame accepted from a peer")

	/** ======================== Run Flags ========================== **/
	flagSet.StringVar(&cfg.Run.LogDir, "log-dir",
		cfg.Run.LogDir, "root of the run directories")
	flagSet.StringVar(&cfg.Run.EnvID, "env-id",
		cfg.Run.EnvID, "environment name, first level of the run directory")
	flagSet.StringVar(&cfg.Run.Tag, "tag",
		cfg.Run.Tag, "prefix of the run id")

	/** ======================== Train Flags ========================== **/
	flagSet.Int64Var(&cfg.Train.Seed, "seed",
		cfg.Train.Seed, "base seed shared by the group")
	flagSet.Uint64Var(&cfg.Train.SyncInterval, "synchronize-step-interval",
		cfg.Train.SyncInterval, "local steps between periodic synchronizations, 0 disables them")
	flagSet.BoolVar(&cfg.Train.ShareOptimizer, "share-optimizer-params",
		cfg.Train.ShareOptimizer, "synchronize the optimizer state with the parameters")
	flagSet.BoolVar(&cfg.Train.Verify, "verify-sync",
		cfg.Train.Verify, "compare fingerprints with the source after every synchronization")
	flagSet.Uint64Var(&cfg.Train.MaxSteps, "max-steps",
		cfg.Train.MaxSteps, "local steps to train, 0 trains until interrupted")
	flagSet.Float64Var(&cfg.Train.LearningRate, "learning-rate",
		cfg.Train.LearningRate, "optimizer learning rate")
	flagSet.IntVar(&cfg.Train.Rollout, "rollout",
		cfg.Train.Rollout, "environment steps per optimizer update")
	flagSet.Uint64Var(&cfg.Train.SummaryFrequency, "summary-frequency",
		cfg.Train.SummaryFrequency, "local steps between progress summaries")

	/** ======================== Env Flags ========================== **/
	flagSet.IntVarP(&cfg.Env.NumEnvs, "nb-env", "n",
		cfg.Env.NumEnvs, "parallel environments per peer")

	return configPath
}

// Overrides are flag values given on the command line.
type Overrides map[string][]string

// ChangedFlags captures the flags set on the command line, so that they win
// over the preset and the config file loaded afterwards.
func ChangedFlags(flagSet *pflag.FlagSet) Overrides {
	rst := Overrides{}
	flagSet.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			rst[f.Name] = append([]string(nil), sv.GetSlice()...)
			return
		}
		rst[f.Name] = []string{f.Value.String()}
	})
	return rst
}

// Apply sets the captured values again.
func (o Overrides) Apply(flagSet *pflag.FlagSet) error {
	for name, values := range o {
		f := flagSet.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %s", name)
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(values); err != nil {
				return fmt.Errorf("flag %s: %w", name, err)
			}
			continue
		}
		if err := f.Value.Set(values[0]); err != nil {
			return fmt.Errorf("flag %s: %w", name, err)
		}
	}
	return nil
}
