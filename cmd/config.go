// cmd/config.go
package cmd

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/tiersim/tiersim/sim"
)

// loadSimConfig parses a simulation Config from YAML with strict field
// checking, the way cmd/default_config.go's loadDefaultsConfig did for the
// teacher's model defaults file: an unrecognized key is a StartupError,
// not a silently-ignored typo.
func loadSimConfig(path string) sim.Config {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("failed to read config file %s: %v", path, err)
	}
	var cfg sim.Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		logrus.Fatalf("failed to parse config YAML %s: %v", path, err)
	}
	return cfg
}
