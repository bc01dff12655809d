package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/card-preview.db" description:"SQLite database file"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for website extraction"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"5" description:"Scheduler interval in seconds"`
	BatchSize         int    `long:"batch-size" env:"BATCH_SIZE" default:"20" description:"Pending websites claimed per scheduler tick"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Fetching
	UserAgentsFile string `long:"user-agents-file" env:"USER_AGENTS_FILE" description:"YAML file with a user_agents list replacing the built-in pool"`
	FetchTimeout   int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Simple fetch timeout in seconds"`
	RenderTimeout  int    `long:"render-timeout" env:"RENDER_TIMEOUT" default:"30" description:"Headless render timeout in seconds"`
	ScreenshotDir  string `long:"screenshot-dir" env:"SCREENSHOT_DIR" default:"./data/screenshots" description:"Directory for full-page screenshots"`
	BrowserURL     string `long:"browser-url" env:"BROWSER_URL" description:"DevTools URL of a running browser (launches a local one when empty)"`
	BrowserBin     string `long:"browser-bin" env:"BROWSER_BIN" description:"Browser binary used when launching locally"`
	NoStealth      bool   `long:"no-stealth" env:"NO_STEALTH" description:"Disable stealth page evasions"`

	// Page cache
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for caching anonymous page fetches (disabled when empty)"`
	PageCacheTTL int    `long:"page-cache-ttl" env:"PAGE_CACHE_TTL" default:"3600" description:"Page cache TTL in seconds"`

	// Document service
	DocServiceURL   string `long:"docservice-url" env:"DOCSERVICE_URL" default:"https://api.diffbot.com/v3/article" description:"Document extraction service endpoint"`
	DocServiceToken string `long:"docservice-token" env:"DOCSERVICE_TOKEN" description:"Document extraction service token (service disabled when empty)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	cfg, err := load(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", raw.WorkerCount)
	}
	if raw.SchedulerInterval < 1 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %d", raw.SchedulerInterval)
	}

	return &Cfg{
		DBPath:            raw.DBPath,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		BatchSize:         raw.BatchSize,
		APIAccessKey:      raw.APIAccessKey,
		UserAgentsFile:    raw.UserAgentsFile,
		FetchTimeout:      time.Duration(raw.FetchTimeout) * time.Second,
		RenderTimeout:     time.Duration(raw.RenderTimeout) * time.Second,
		ScreenshotDir:     raw.ScreenshotDir,
		BrowserURL:        raw.BrowserURL,
		BrowserBin:        raw.BrowserBin,
		Stealth:           !raw.NoStealth,
		RedisAddr:         raw.RedisAddr,
		PageCacheTTL:      time.Duration(raw.PageCacheTTL) * time.Second,
		DocServiceURL:     raw.DocServiceURL,
		DocServiceToken:   raw.DocServiceToken,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
