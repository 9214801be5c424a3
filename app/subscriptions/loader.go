package subscriptions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Loader reads subscription declarations from a directory of YAML files.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadAll loads every *.yaml/*.yml file in the subscriptions directory.
// A missing directory is not an error; there is simply nothing declared.
func (l *Loader) LoadAll() ([]*Subscription, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(l.dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	var subs []*Subscription
	for _, file := range files {
		sub, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		if err := l.validate(sub); err != nil {
			return nil, fmt.Errorf("invalid subscription %s: %w", file, err)
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

func (l *Loader) loadFile(path string) (*Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sub Subscription
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&sub)
	return &sub, nil
}

func (l *Loader) setDefaults(sub *Subscription) {
	if sub.Type == "" {
		sub.Type = "rss"
	}

	caser := cases.Title(language.English)
	for i, cat := range sub.Categories {
		sub.Categories[i] = caser.String(strings.ToLower(strings.TrimSpace(cat)))
	}
}

func (l *Loader) validate(sub *Subscription) error {
	if sub.URL == "" {
		return fmt.Errorf("subscription URL is required")
	}
	if sub.Auto != "" {
		if _, err := regexp.Compile(sub.Auto); err != nil {
			return fmt.Errorf("invalid auto pattern: %w", err)
		}
	}
	if sub.Mask != "" {
		if _, err := regexp.Compile(sub.Mask); err != nil {
			return fmt.Errorf("invalid mask pattern: %w", err)
		}
	}
	return nil
}
