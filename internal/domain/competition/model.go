package competition

import (
	"fmt"
	"strings"
)

// Source is one (base URL, path slug, locale) variant a competition can be discovered from.
type Source struct {
	BaseURL string
	Slug    string
	Locale  string
}

func (s Source) URL() string {
	base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	slug := strings.TrimLeft(strings.TrimSpace(s.Slug), "/")
	if slug == "" {
		return base
	}
	return base + "/" + slug
}

// Competition is a tournament whose next round is discovered from public HTML.
type Competition struct {
	Code        string
	Name        string
	NeededCount int
	// Sources are tried strictly in order.
	Sources []Source
}

func (c Competition) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("competition code is required")
	}
	if c.NeededCount <= 0 {
		return fmt.Errorf("competition %s: needed count must be > 0", c.Code)
	}
	for idx, source := range c.Sources {
		if strings.TrimSpace(source.BaseURL) == "" {
			return fmt.Errorf("competition %s: source %d base url is required", c.Code, idx)
		}
	}
	return nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
