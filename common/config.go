package common

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Cluster configuration, read from the file named by -config-file.  All fields are optional; the
// capacity numbers fall back to the built-in defaults below when absent or nonpositive.

type Capacity struct {
	// Aggregate CPU seconds available on the cluster per calendar day.
	CPUSecondsPerDay float64 `json:"cpu_seconds_per_day"`

	// Aggregate memory capacity in GB-seconds per calendar day.
	GBSecondsPerDay float64 `json:"gb_seconds_per_day"`
}

type ClusterConfig struct {
	Name        string   `json:"name"`
	Capacity    Capacity `json:"capacity"`
	DatabaseURL string   `json:"database_url"`
	KafkaBroker string   `json:"kafka_broker"`
}

// The default capacity describes the cluster this tool grew up on: four racks of 96-core nodes
// plus one of 40-core nodes, and 2183 GB of RAM.
const (
	DefaultCPUSecondsPerDay = 96*86400*4 + 40*86400
	DefaultGBSecondsPerDay  = 2183 * 86400
)

// The config objects are cached by file name.  Currently this cache is never cleaned.  It could be
// cleaned if the daemon code catches SIGHUP (telling it to reinitialize itself).

var (
	// MT: Locked
	configCacheLock sync.Mutex
	configCache     = make(map[string]*ClusterConfig)
)

func GetConfig(configName string) (*ClusterConfig, error) {
	configCacheLock.Lock()
	defer configCacheLock.Unlock()

	if probe := configCache[configName]; probe != nil {
		return probe, nil
	}

	cfg, err := readConfig(configName)
	if err != nil {
		return nil, err
	}
	configCache[configName] = cfg
	return cfg, nil
}

// Like GetConfig, but "" is an accepted name for the all-defaults configuration.
func MaybeGetConfig(configName string) (*ClusterConfig, error) {
	if configName == "" {
		return DefaultConfig(), nil
	}
	return GetConfig(configName)
}

func DefaultConfig() *ClusterConfig {
	cfg := new(ClusterConfig)
	cfg.applyDefaults()
	return cfg
}

func readConfig(configName string) (*ClusterConfig, error) {
	bs, err := os.ReadFile(configName)
	if err != nil {
		return nil, fmt.Errorf("Failed to read config file: %w", err)
	}
	cfg := new(ClusterConfig)
	if err := json.Unmarshal(bs, cfg); err != nil {
		return nil, fmt.Errorf("Failed to parse config file %s: %w", configName, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cc *ClusterConfig) applyDefaults() {
	if cc.Capacity.CPUSecondsPerDay <= 0 {
		cc.Capacity.CPUSecondsPerDay = DefaultCPUSecondsPerDay
	}
	if cc.Capacity.GBSecondsPerDay <= 0 {
		cc.Capacity.GBSecondsPerDay = DefaultGBSecondsPerDay
	}
}
