package config

import (
	"strconv"
	"time"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPLICER_"

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

func setString(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func setInt(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func setFloat(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func setBool(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func setDuration(dst func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = Duration(d)
		return nil
	}
}

var envVars = []envVar{
	{"RENDER_WIDTH", setInt(func(c *Config) *int { return &c.Render.Width })},
	{"RENDER_HEIGHT", setInt(func(c *Config) *int { return &c.Render.Height })},
	{"RENDER_RANDOMNESS", setFloat(func(c *Config) *float64 { return &c.Render.Randomness })},
	{"RENDER_MAX_STEPS", setInt(func(c *Config) *int { return &c.Render.MaxSteps })},
	{"RENDER_PUBLISH", setBool(func(c *Config) *bool { return &c.Render.Publish })},
	{"COMPARE_PIXEL_DIFF_THRESHOLD", setInt(func(c *Config) *int { return &c.Compare.PixelDiffThreshold })},
	{"COMPARE_TOLERATED_PERCENT", setFloat(func(c *Config) *float64 { return &c.Compare.ToleratedPercent })},
	{"COMPARE_CHANNELS", setString(func(c *Config) *string { return &c.Compare.Channels })},
	{"CACHE_BACKEND", setString(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", setString(func(c *Config) *string { return &c.Cache.Dir })},
	{"CACHE_TTL", setDuration(func(c *Config) *Duration { return &c.Cache.TTL })},
	{"REDIS_ADDR", setString(func(c *Config) *string { return &c.Cache.Redis.Addr })},
	{"REDIS_PASSWORD", setString(func(c *Config) *string { return &c.Cache.Redis.Password })},
	{"REDIS_DB", setInt(func(c *Config) *int { return &c.Cache.Redis.DB })},
	{"STORAGE_DIR", setString(func(c *Config) *string { return &c.Storage.Dir })},
	{"GATEWAY", setString(func(c *Config) *string { return &c.Storage.Gateway })},
	{"RECEIPTS_BACKEND", setString(func(c *Config) *string { return &c.Receipts.Backend })},
	{"MONGO_URI", setString(func(c *Config) *string { return &c.Receipts.URI })},
	{"MONGO_DATABASE", setString(func(c *Config) *string { return &c.Receipts.Database })},
	{"SERVER_ADDR", setString(func(c *Config) *string { return &c.Server.Addr })},
}

// ApplyEnv applies SPLICER_* overrides found by lookup. Pass os.LookupEnv
// in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.set(c, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "environment variable %s%s", EnvPrefix, ev.name)
		}
	}
	return nil
}

// EnvNames lists the supported environment variables.
func EnvNames() []string {
	out := make([]string, len(envVars))
	for i, ev := range envVars {
		out[i] = EnvPrefix + ev.name
	}
	return out
}
