package cfg

type Cfg struct {
	// Storage configuration
	DBPath      string
	DownloadDir string
	SubsDir     string

	// Application configuration
	Port            string
	APIAccessKey    string
	DownloadWorkers int
	PollWorkers     int
	PollInterval    int
	FetchTimeout    int

	// Application metadata
	UserAgent string
	Batch     bool
	Debug     bool
	Version   string
}
