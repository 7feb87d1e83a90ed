// Package cache provides answer cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/zakon-kg/lawrag/pkg/options"
	redisopts "github.com/zakon-kg/lawrag/pkg/options/redis"
)

var _ options.IOptions = (*Options)(nil)

// Options contains answer cache configuration.
type Options struct {
	// Enabled toggles the Redis-backed answer cache.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the cache entry lifetime.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix is prepended to every cache key.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis holds the Redis connection configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "lawrag:answer:",
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"enabled", o.Enabled, "Enable the answer cache.")
	fs.DurationVar(&o.TTL, options.Join(prefixes...)+"ttl", o.TTL, "Cache entry TTL.")
	fs.StringVar(&o.KeyPrefix, options.Join(prefixes...)+"key-prefix", o.KeyPrefix, "Cache key prefix.")
	o.Redis.AddFlags(fs, prefixes...)
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive"))
	}
	errs = append(errs, o.Redis.Validate()...)
	return errs
}
