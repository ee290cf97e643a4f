package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/five-vee/rendezvous"
)

// EnvPrefix prefixes every environment variable read by Load,
// e.g. RENDEZVOUS_WORKERS.
const EnvPrefix = "RENDEZVOUS"

const (
	keyWorkers   = "workers"
	keyPhases    = "phases"
	keyWork      = "work"
	keyJitter    = "jitter"
	keyTimeout   = "timeout"
	keySingleUse = "single-use"
)

// Config is the configuration of a coordinated run.
type Config struct {
	// Workers is the number of parties.
	Workers int
	// Phases is how many times the workers meet.
	Phases int
	// Work is the mean duration of each worker's pre-checkpoint work.
	Work time.Duration
	// Jitter is the standard deviation of Work.
	Jitter time.Duration
	// Timeout bounds each checkpoint wait. Zero waits forever.
	Timeout time.Duration
	// SingleUse selects the single-shot barrier. Requires Phases == 1.
	SingleUse bool
}

// Default returns the defaults: three workers meeting once.
func Default() Config {
	return Config{
		Workers: 3,
		Phases:  1,
		Work:    10 * time.Millisecond,
		Jitter:  2 * time.Millisecond,
	}
}

// RegisterFlags adds the run flags to fs and binds them into v.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Default()
	fs.Int(keyWorkers, d.Workers, "number of workers that meet at the checkpoint")
	fs.Int(keyPhases, d.Phases, "number of times the workers meet")
	fs.Duration(keyWork, d.Work, "mean duration of each worker's work before the checkpoint")
	fs.Duration(keyJitter, d.Jitter, "standard deviation of the work duration")
	fs.Duration(keyTimeout, d.Timeout, "give up waiting at the checkpoint after this long (0 waits forever)")
	fs.Bool(keySingleUse, d.SingleUse, "use the single-shot barrier instead of the cyclic one")
	return v.BindPFlags(fs)
}

// Load reads the config from v, with environment variables taking
// precedence over defaults and flags over both.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(keyWorkers, d.Workers)
	v.SetDefault(keyPhases, d.Phases)
	v.SetDefault(keyWork, d.Work)
	v.SetDefault(keyJitter, d.Jitter)
	v.SetDefault(keyTimeout, d.Timeout)
	v.SetDefault(keySingleUse, d.SingleUse)

	cfg := Config{
		Workers:   v.GetInt(keyWorkers),
		Phases:    v.GetInt(keyPhases),
		Work:      v.GetDuration(keyWork),
		Jitter:    v.GetDuration(keyJitter),
		Timeout:   v.GetDuration(keyTimeout),
		SingleUse: v.GetBool(keySingleUse),
	}
	return cfg, cfg.Validate()
}

// Validate returns an error wrapping rendezvous.ErrInvalidConfiguration
// if the config cannot be run.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", rendezvous.ErrInvalidConfiguration, c.Workers)
	case c.Phases < 1:
		return fmt.Errorf("%w: phases must be at least 1, got %d", rendezvous.ErrInvalidConfiguration, c.Phases)
	case c.SingleUse && c.Phases != 1:
		return fmt.Errorf("%w: a single-use barrier meets once, got %d phases", rendezvous.ErrInvalidConfiguration, c.Phases)
	case c.Work < 0 || c.Jitter < 0 || c.Timeout < 0:
		return fmt.Errorf("%w: durations must not be negative", rendezvous.ErrInvalidConfiguration)
	}
	return nil
}
