package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"salofyi/internal/fsutil"
)

// LoginConfig holds the public guest credentials of the Timmi booking system.
type LoginConfig struct {
	LoginName   string `yaml:"login_name" json:"login_name"`
	Password    string `yaml:"password" json:"password"`
	RoomID      int    `yaml:"room_id" json:"room_id"`
	AdminAreaID int    `yaml:"admin_area_id" json:"admin_area_id"`
}

// RoomPartsConfig selects which room parts (pools/lanes) Timmi returns.
type RoomPartsConfig struct {
	Type int `yaml:"type" json:"type"`
	IDs  int `yaml:"ids" json:"ids"`
}

// BaserowConfig points at the optional table of exceptional open hours.
// Overrides are disabled when Token or TableID is empty.
type BaserowConfig struct {
	Host    string `yaml:"host" json:"host"`
	Token   string `yaml:"token" json:"token"`
	TableID string `yaml:"table_id" json:"table_id"`
}

// HourRange is a [From, To) hour pair.
type HourRange struct {
	From int `yaml:"from" json:"from"`
	To   int `yaml:"to" json:"to"`
}

// LaneWeight multiplies the heat of the listed lanes of one pool.
type LaneWeight struct {
	Pool       string   `yaml:"pool" json:"pool"`
	Lanes      []string `yaml:"lanes" json:"lanes"`
	Multiplier float64  `yaml:"multiplier" json:"multiplier"`
}

// SwimmiConfig configures the swimming hall runner.
type SwimmiConfig struct {
	Host      string          `yaml:"host" json:"host"`
	Login     LoginConfig     `yaml:"login" json:"login"`
	RoomParts RoomPartsConfig `yaml:"room_parts" json:"room_parts"`

	// PastDays and FutureDays define the fetch window around today.
	PastDays   int `yaml:"past_days" json:"past_days"`
	FutureDays int `yaml:"future_days" json:"future_days"`

	// RequestsPerSecond paces calls against Timmi.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	PageHeader string `yaml:"page_header" json:"page_header"`

	// BasePath prefixes the navigation links; the today page lives at BasePath.
	BasePath string `yaml:"base_path" json:"base_path"`

	RenderHours HourRange `yaml:"render_hours" json:"render_hours"`

	// OpenHours is indexed by ISO weekday, Monday first.
	OpenHours []HourRange `yaml:"open_hours" json:"open_hours"`

	// H = Hyppyallas, K = Kilpa-allas: the entire pool is reserved.
	WholePoolMarkers []string `yaml:"whole_pool_markers" json:"whole_pool_markers"`
	// M = Matala pää, S = Syvä pää: every lane except the other end is reserved.
	HalfPoolMarkers []string `yaml:"half_pool_markers" json:"half_pool_markers"`
	// T = Terapia-allas, L = Lasten allas: pools without designated lanes.
	SingleLanePools []string `yaml:"single_lane_pools" json:"single_lane_pools"`

	IgnorePhrases []string          `yaml:"ignore_phrases" json:"ignore_phrases"`
	NameFixes     map[string]string `yaml:"name_fixes" json:"name_fixes"`
	OverrideNote  string            `yaml:"override_note" json:"override_note"`

	PoolWeights map[string]float64 `yaml:"pool_weights" json:"pool_weights"`
	LaneWeights []LaneWeight       `yaml:"lane_weights" json:"lane_weights"`

	Baserow BaserowConfig `yaml:"baserow" json:"baserow"`
}

// RedisConfig is used when the cache backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// CacheConfig selects where fetched snapshots are kept.
type CacheConfig struct {
	// Backend is "file" (default) or "redis".
	Backend  string      `yaml:"backend" json:"backend"`
	Dir      string      `yaml:"dir" json:"dir"`
	TTLHours int         `yaml:"ttl_hours" json:"ttl_hours"`
	Redis    RedisConfig `yaml:"redis" json:"redis"`
}

// PreviewConfig controls the headless Chromium screenshot of the today page.
type PreviewConfig struct {
	Enabled        bool `yaml:"enabled" json:"enabled"`
	Width          int  `yaml:"width" json:"width"`
	Height         int  `yaml:"height" json:"height"`
	TimeoutSeconds int  `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the dev server listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all Timmi timestamps are rendered in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// OutputDir receives one subdirectory per runner.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// RefreshCron is the cron schedule used in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Calendar toggles the ICS feeds next to the HTML pages.
	Calendar bool `yaml:"calendar" json:"calendar"`

	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Preview PreviewConfig `yaml:"preview" json:"preview"`
	Swimmi  SwimmiConfig  `yaml:"swimmi" json:"swimmi"`
}

// DefaultConfig returns the configuration of the Salo swimming hall.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8000"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Helsinki"
	}
	if c.OutputDir == "" {
		c.OutputDir = "_out"
	}
	if c.RefreshCron == "" {
		// Shortly after midnight, so "today" moves to index.html.
		c.RefreshCron = "5 0 * * *"
	}

	switch c.Cache.Backend {
	case "file", "redis":
	default:
		c.Cache.Backend = "file"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "_cache"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 36
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}

	if c.Preview.Width <= 0 {
		c.Preview.Width = 1200
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = 630
	}
	if c.Preview.TimeoutSeconds <= 0 {
		c.Preview.TimeoutSeconds = 30
	}

	c.Swimmi.normalize()
}

func (s *SwimmiConfig) normalize() {
	if s.Host == "" {
		s.Host = "https://asp3.timmi.fi/WebTimmi/"
	}
	// Public guest account of the city of Salo.
	if s.Login.LoginName == "" {
		s.Login = LoginConfig{
			LoginName:   "SALO_LIIKUNTA",
			Password:    "GUEST",
			RoomID:      504480,
			AdminAreaID: 316,
		}
	}
	if s.RoomParts.Type == 0 && s.RoomParts.IDs == 0 {
		s.RoomParts = RoomPartsConfig{Type: 6, IDs: 1227}
	}
	if s.PastDays < 0 {
		s.PastDays = 0
	}
	if s.FutureDays <= 0 {
		s.FutureDays = 7
	}
	if s.RequestsPerSecond <= 0 {
		s.RequestsPerSecond = 2
	}
	if s.PageHeader == "" {
		s.PageHeader = "Salon uimahalli"
	}
	if s.BasePath == "" {
		s.BasePath = "/"
	}
	if s.RenderHours.From == 0 && s.RenderHours.To == 0 {
		s.RenderHours = HourRange{From: 5, To: 23}
	}
	if len(s.OpenHours) != 7 {
		s.OpenHours = []HourRange{
			{6, 21}, {6, 21}, {12, 20}, {6, 21}, {6, 21}, {11, 18}, {11, 18},
		}
	}
	if s.WholePoolMarkers == nil {
		s.WholePoolMarkers = []string{"H", "K"}
	}
	if s.HalfPoolMarkers == nil {
		s.HalfPoolMarkers = []string{"M", "S"}
	}
	if s.SingleLanePools == nil {
		s.SingleLanePools = []string{"T", "L"}
	}
	if s.IgnorePhrases == nil {
		s.IgnorePhrases = []string{"ei varaus", "suljettu"}
	}
	if s.NameFixes == nil {
		s.NameFixes = map[string]string{"Hyppy-allas": "Hyppyallas"}
	}
	if s.OverrideNote == "" {
		s.OverrideNote = "Poikkeusaukiolo"
	}
	if s.PoolWeights == nil {
		s.PoolWeights = map[string]float64{"L": 0.75, "T": 2.25}
	}
	if s.LaneWeights == nil {
		s.LaneWeights = []LaneWeight{{Pool: "H", Lanes: []string{"1", "3"}, Multiplier: 1.5}}
	}
	if s.Baserow.Host == "" {
		s.Baserow.Host = "https://api.baserow.io/api"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
