package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"newsdigest/internal/domain"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is loaded from environment variables.
type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AdminUserIDs []int64 `env:"ADMIN_USER_IDS"`
	OpenAIAPIKey string  `env:"OPENAI_API_KEY"`
	OpenAIModel  string  `env:"OPENAI_MODEL"`

	DataDir   string `env:"DATA_DIR"   envDefault:"data"`
	FeedsPath string `env:"FEEDS_PATH" envDefault:"feeds.yaml"`

	ScrapeInterval time.Duration `env:"SCRAPE_INTERVAL" envDefault:"30m"`

	MaxArticlesPerUser int `env:"MAX_ARTICLES_PER_USER" envDefault:"10"`
	SummaryMaxLength   int `env:"SUMMARY_MAX_LENGTH"    envDefault:"500"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

type feedsFile struct {
	Feeds []domain.FeedSource `yaml:"feeds"`
}

// LoadFeeds reads feed sources from a YAML file. A missing file falls back to
// the compiled-in defaults; a malformed file is an error.
func LoadFeeds(path string) ([]domain.FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultFeeds(), nil
		}

		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var f feedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal feeds file: %w", err)
	}

	if len(f.Feeds) == 0 {
		return DefaultFeeds(), nil
	}

	for i := range f.Feeds {
		if f.Feeds[i].Kind == "" {
			f.Feeds[i].Kind = domain.SourceKindRSS
		}
	}

	return f.Feeds, nil
}

// DefaultFeeds is the source list used when no feeds.yaml is present.
func DefaultFeeds() []domain.FeedSource {
	return []domain.FeedSource{
		{Name: "TechCrunch", URL: "https://techcrunch.com/feed/", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
		{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
		{Name: "The Verge", URL: "https://www.theverge.com/rss/index.xml", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
		{Name: "BBC Technology", URL: "https://feeds.bbci.co.uk/news/technology/rss.xml", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
		{Name: "Wired", URL: "https://www.wired.com/feed/rss", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
		{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
		{Name: "VentureBeat", URL: "https://venturebeat.com/feed/", Category: "technology", Kind: domain.SourceKindRSS, Enabled: true},
	}
}
