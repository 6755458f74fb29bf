package device

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
)

// Config holds the recovery run's tunables, loaded the way the teacher's
// LoadDMGConfig loaded its own settings: viper first, flags overriding
// after (§7a).
type Config struct {
	// StartBlock resumes a prior run that was interrupted partway through
	// the device (§6's -s/--start-block).
	StartBlock uint64 `mapstructure:"start_block"`

	// RestoreXattrs controls whether recovered extended attributes are
	// replayed onto the output file via syscall.Setxattr (§6's --xattrs).
	RestoreXattrs bool `mapstructure:"restore_xattrs"`

	// Verbose and Quiet set the logrus level (§7a); Verbose wins if both are
	// set.
	Verbose bool `mapstructure:"verbose"`
	Quiet   bool `mapstructure:"quiet"`

	// MinFreeBytes is loaded from configuration; no free-space check on
	// the target directory reads it.
	MinFreeBytes uint64 `mapstructure:"min_free_bytes"`

	// ScanWorkersPerAG and AnalyzeWorkersPerAG are loaded from
	// configuration; the scheduler does not read them and always runs one
	// scanner and one analyzer per AG (§4.8).
	ScanWorkersPerAG    int `mapstructure:"scan_workers_per_ag"`
	AnalyzeWorkersPerAG int `mapstructure:"analyze_workers_per_ag"`
}

// defaultConfig matches the reference implementation's built-in defaults
// when no config file or flag overrides them.
func defaultConfig() Config {
	return Config{
		RestoreXattrs:       true,
		ScanWorkersPerAG:    1,
		AnalyzeWorkersPerAG: 1,
	}
}

// LoadConfig reads an optional config file (YAML, TOML, or JSON, per
// viper's usual format sniffing) plus XFSUNDELETE_-prefixed environment
// variables, following the teacher's LoadDMGConfig shape. path may be
// empty, in which case only defaults and the environment apply.
func LoadConfig(path string) (Config, error) {
	const op = "device.LoadConfig"

	cfg := defaultConfig()

	v := viper.New()
	v.SetEnvPrefix("XFSUNDELETE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("restore_xattrs", cfg.RestoreXattrs)
	v.SetDefault("scan_workers_per_ag", cfg.ScanWorkersPerAG)
	v.SetDefault("analyze_workers_per_ag", cfg.AnalyzeWorkersPerAG)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, recovererr.New(recovererr.ArgError, op, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, recovererr.New(recovererr.ArgError, op, err)
	}

	return cfg, nil
}
