package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./mediarack.db" description:"Path to the SQLite catalog database"`
	DownloadDir string `long:"download-dir" env:"DOWNLOAD_DIR" default:"./downloads" description:"Directory downloaded media is written to"`
	SubsDir     string `long:"subs-dir" env:"SUBS_DIR" default:"./subscriptions" description:"Directory containing subscription YAML files"`

	// Application configuration
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP control API port"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"Access key for mutating API endpoints (optional)"`
	DownloadWorkers int    `long:"download-workers" env:"DOWNLOAD_WORKERS" default:"2" description:"Number of concurrent download workers"`
	PollWorkers     int    `long:"poll-workers" env:"POLL_WORKERS" default:"4" description:"Number of concurrent channel poll workers"`
	PollInterval    int    `long:"poll-interval" env:"POLL_INTERVAL" default:"900" description:"Scheduled poll interval in seconds"`
	FetchTimeout    int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"60" description:"Source backend fetch timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"mediarack/1.0" description:"User agent string for HTTP requests"`
	Batch     bool   `long:"batch" env:"BATCH" description:"Poll all channels once, wait for downloads to finish, then exit"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		DownloadDir:     raw.DownloadDir,
		SubsDir:         raw.SubsDir,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		DownloadWorkers: raw.DownloadWorkers,
		PollWorkers:     raw.PollWorkers,
		PollInterval:    raw.PollInterval,
		FetchTimeout:    raw.FetchTimeout,
		UserAgent:       raw.UserAgent,
		Batch:           raw.Batch,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
