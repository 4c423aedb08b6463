// Package config loads splicer configuration.
//
// Configuration is layered: built-in defaults, then a TOML file, then
// SPLICER_* environment variables. Command-line flags are applied on top by
// the CLI.
//
//	[render]
//	width = 1500
//	height = 500
//
//	[compare]
//	pixel_diff_threshold = 10
//	tolerated_percent = 2.0
//
//	[[networks]]
//	id = 42
//	name = "kovan"
//	source = "http"
//	index = "https://styles.example.com/kovan/index.json"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/compare"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
	"github.com/cod1ng-earth/splicenft/pkg/httputil"
	"github.com/cod1ng-earth/splicenft/pkg/receipt"
	"github.com/cod1ng-earth/splicenft/pkg/render"
)

const appName = "splicer"

// Duration is a time.Duration written as a string such as "90s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete configuration.
type Config struct {
	Render   RenderConfig    `toml:"render"`
	Compare  CompareConfig   `toml:"compare"`
	Cache    CacheConfig     `toml:"cache"`
	Storage  StorageConfig   `toml:"storage"`
	Receipts ReceiptsConfig  `toml:"receipts"`
	Server   ServerConfig    `toml:"server"`
	Networks []NetworkConfig `toml:"networks"`
}

type RenderConfig struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	Randomness float64 `toml:"randomness"`
	MaxSteps   int     `toml:"max_steps"`
	Publish    bool    `toml:"publish"`
}

type CompareConfig struct {
	PixelDiffThreshold int     `toml:"pixel_diff_threshold"`
	ToleratedPercent   float64 `toml:"tolerated_percent"`
	Channels           string  `toml:"channels"`
}

type CacheConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	TTL     Duration    `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// StorageConfig locates the content-addressed store and the IPFS gateway.
// An empty Dir keeps published renders in memory.
type StorageConfig struct {
	Dir     string `toml:"dir"`
	Gateway string `toml:"gateway"`
}

type ReceiptsConfig struct {
	Backend    string `toml:"backend"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	Prefetch     bool     `toml:"prefetch"`
}

// Network source kinds.
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceHTTP    = "http"
)

// NetworkConfig describes one served network and where its styles come
// from. Path is used by file sources, Index by http sources.
type NetworkConfig struct {
	ID      uint64 `toml:"id"`
	Name    string `toml:"name"`
	Source  string `toml:"source"`
	Path    string `toml:"path"`
	Index   string `toml:"index"`
	Gateway string `toml:"gateway"`
}

// Default returns the built-in configuration: a single local network
// serving the bundled styles.
func Default() Config {
	return Config{
		Render: RenderConfig{
			Width:      render.DefaultWidth,
			Height:     render.DefaultHeight,
			Randomness: render.DefaultRandomness,
			MaxSteps:   render.DefaultMaxSteps,
		},
		Compare: CompareConfig{
			PixelDiffThreshold: int(compare.DefaultPixelDiffThreshold),
			ToleratedPercent:   compare.DefaultToleratedPercent,
			Channels:           compare.RGBA.String(),
		},
		Cache: CacheConfig{
			Backend: cache.BackendNone,
			TTL:     Duration(7 * 24 * time.Hour),
		},
		Storage: StorageConfig{Gateway: httputil.DefaultGateway},
		Receipts: ReceiptsConfig{
			Backend:    receipt.BackendMemory,
			Database:   receipt.DefaultDatabase,
			Collection: receipt.DefaultCollection,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(2 * time.Minute),
		},
		Networks: []NetworkConfig{{ID: 1, Name: "local", Source: SourceBuiltin}},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/splicer/config.toml, falling back to
// ~/.config/splicer/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of the defaults and applies the environment. An
// empty path loads the default path if it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.decode(data); err != nil {
				return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults without consulting the
// environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	// a file that lists networks replaces the default network
	var probe struct {
		Networks []NetworkConfig `toml:"networks"`
	}
	if _, err := toml.Decode(string(data), &probe); err != nil {
		return err
	}
	if len(probe.Networks) > 0 {
		c.Networks = nil
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	return nil
}

// Network returns the configuration of one network.
func (c Config) Network(id uint64) (NetworkConfig, bool) {
	for _, n := range c.Networks {
		if n.ID == id {
			return n, true
		}
	}
	return NetworkConfig{}, false
}

// Validate checks ranges, enums and network uniqueness.
func (c Config) Validate() error {
	if err := errors.ValidateDimensions(c.Render.Width, c.Render.Height); err != nil {
		return err
	}
	if err := errors.ValidateRandomness(c.Render.Randomness); err != nil {
		return err
	}
	if c.Render.MaxSteps < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.max_steps must not be negative")
	}
	if _, err := c.CompareOptions(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendMemory, cache.BackendFile, cache.BackendRedis:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Receipts.Backend {
	case "", receipt.BackendMemory:
	case receipt.BackendMongo:
		if c.Receipts.URI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "receipts.uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown receipts backend %q", c.Receipts.Backend)
	}

	if len(c.Networks) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one network must be configured")
	}
	seen := make(map[uint64]bool, len(c.Networks))
	for _, n := range c.Networks {
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "network %d configured twice", n.ID)
		}
		seen[n.ID] = true
		if err := n.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (n NetworkConfig) validate() error {
	switch n.Source {
	case "", SourceBuiltin:
	case SourceFile:
		if n.Path == "" {
			return errors.New(errors.ErrCodeInvalidInput, "network %d: file source requires path", n.ID)
		}
	case SourceHTTP:
		if n.Index == "" {
			return errors.New(errors.ErrCodeInvalidInput, "network %d: http source requires index", n.ID)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "network %d: unknown source %q", n.ID, n.Source)
	}
	return nil
}

// Dim returns the configured render size.
func (c Config) Dim() render.Dimensions {
	return render.Dimensions{Width: c.Render.Width, Height: c.Render.Height}
}

// CompareOptions converts the [compare] section.
func (c Config) CompareOptions() (compare.Options, error) {
	if c.Compare.PixelDiffThreshold < 0 || c.Compare.PixelDiffThreshold > 255 {
		return compare.Options{}, errors.New(errors.ErrCodeInvalidInput,
			"compare.pixel_diff_threshold must be within [0, 255], got %d", c.Compare.PixelDiffThreshold)
	}
	channels, err := compare.ParseChannelSet(c.Compare.Channels)
	if err != nil {
		return compare.Options{}, err
	}
	opts := compare.Options{
		PixelDiffThreshold: uint8(c.Compare.PixelDiffThreshold),
		ToleratedPercent:   c.Compare.ToleratedPercent,
		Channels:           channels,
	}
	return opts, opts.Validate()
}

// GateConfig converts the render and compare sections.
func (c Config) GateConfig() (gate.Config, error) {
	opts, err := c.CompareOptions()
	if err != nil {
		return gate.Config{}, err
	}
	return gate.Config{
		Compare:    opts,
		Dim:        c.Dim(),
		Randomness: c.Render.Randomness,
		Publish:    c.Render.Publish,
	}, nil
}

// CacheOpen converts the [cache] section.
func (c Config) CacheOpen() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		},
	}
}

// ReceiptOpen converts the [receipts] section.
func (c Config) ReceiptOpen() receipt.Config {
	return receipt.Config{
		Backend: c.Receipts.Backend,
		Mongo: receipt.MongoOptions{
			URI:        c.Receipts.URI,
			Database:   c.Receipts.Database,
			Collection: c.Receipts.Collection,
		},
	}
}
