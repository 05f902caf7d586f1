// Package presets holds named configurations that replace the defaults
// before the config file and flags are applied.
package presets

import (
	"fmt"
	"sort"

	"github.com/replicasync/replicasync/config"
)

var presets = map[string]config.Config{}

func register(name string, conf config.Config) {
	if _, exist := presets[name]; exist {
		panic(fmt.Sprintf("preset %s registered twice", name))
	}
	conf.Preset = name
	presets[name] = conf
}

// Get returns the preset with the given name.
func Get(name string) (config.Config, error) {
	conf, exist := presets[name]
	if !exist {
		return config.Config{}, fmt.Errorf("preset %s is not registered. select one from %v", name, Options())
	}
	return conf, nil
}

// Options returns the names of all presets in order.
func Options() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
