package scrape

import (
	"fmt"
	"strings"
	"time"
)

// SiteConfig parametrizes the pipeline for one source site. The two deployed
// sites run the same event-calendar markup convention, so one pattern table
// serves both; only URL shape and city label differ.
type SiteConfig struct {
	Name    string `mapstructure:"name"`
	City    string `mapstructure:"city"`
	BaseURL string `mapstructure:"base_url"`
	// PagePath is the suffix appended to BaseURL for pages beyond the first,
	// with %d substituted by the page index (e.g. "page/%d/").
	PagePath string `mapstructure:"page_path"`
	// DetailURLHint identifies links pointing at individual event pages.
	DetailURLHint string `mapstructure:"detail_url_hint"`

	MaxPages         int           `mapstructure:"max_pages"`
	DetailFetchLimit int           `mapstructure:"detail_fetch_limit"`
	BatchSize        int           `mapstructure:"batch_size"`
	PageDelay        time.Duration `mapstructure:"page_delay"`
	BatchDelay       time.Duration `mapstructure:"batch_delay"`
}

// ApplyDefaults fills unset bounds with the standard crawl limits.
func (c SiteConfig) ApplyDefaults() SiteConfig {
	if c.PagePath == "" {
		// The WordPress event-calendar convention both deployed sites use.
		c.PagePath = "page/%d/"
	}
	if c.MaxPages == 0 {
		c.MaxPages = 10
	}
	if c.DetailFetchLimit == 0 {
		c.DetailFetchLimit = 20
	}
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	if c.PageDelay == 0 {
		c.PageDelay = time.Second
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = 300 * time.Millisecond
	}
	return c
}

// Validate checks for obviously bad site configuration.
func (c SiteConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("site name must be set")
	}
	if c.City == "" {
		return fmt.Errorf("site %q: city must be set", c.Name)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("site %q: base_url must be set", c.Name)
	}
	if c.PagePath == "" {
		return fmt.Errorf("site %q: page_path must be set", c.Name)
	}
	if !strings.Contains(c.PagePath, "%d") {
		return fmt.Errorf("site %q: page_path must contain %%d", c.Name)
	}
	if c.DetailURLHint == "" {
		return fmt.Errorf("site %q: detail_url_hint must be set", c.Name)
	}
	if c.MaxPages < 0 || c.DetailFetchLimit < 0 || c.BatchSize < 0 {
		return fmt.Errorf("site %q: bounds must be >= 0", c.Name)
	}
	return nil
}

// PageURL returns the listing URL for page n. Page 1 is the base URL itself.
func (c SiteConfig) PageURL(n int) string {
	if n <= 1 {
		return c.BaseURL
	}
	base := strings.TrimSuffix(c.BaseURL, "/")
	return base + "/" + fmt.Sprintf(c.PagePath, n)
}
