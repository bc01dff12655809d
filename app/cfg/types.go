package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	BatchSize         int
	APIAccessKey      string

	// Fetching
	UserAgentsFile string
	FetchTimeout   time.Duration
	RenderTimeout  time.Duration
	ScreenshotDir  string
	BrowserURL     string
	BrowserBin     string
	Stealth        bool

	// Page cache
	RedisAddr    string
	PageCacheTTL time.Duration

	// Document service
	DocServiceURL   string
	DocServiceToken string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
