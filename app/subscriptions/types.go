package subscriptions

// Subscription mirrors one YAML file in the subscriptions directory. Each
// file declares a channel that should exist in the catalog.
type Subscription struct {
	URL        string   `yaml:"url"`
	Type       string   `yaml:"type"`
	Title      string   `yaml:"title"`
	Categories []string `yaml:"categories"`
	Auto       string   `yaml:"auto"`
	Mask       string   `yaml:"mask"`
	AddCount   int      `yaml:"addcount"`
	Disabled   bool     `yaml:"disabled"`
}
