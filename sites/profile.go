package sites

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/reviewharvest/harvest"
	"github.com/use-agent/reviewharvest/models"
)

// Profile describes how to recognise a site's product URLs and how its
// review panel is laid out.
type Profile struct {
	Name    string         `yaml:"name"`
	Pattern string         `yaml:"pattern"`
	Layout  harvest.Layout `yaml:"layout"`
	Fields  harvest.Fields `yaml:"fields"`

	re  *regexp.Regexp
	loc *time.Location
}

// compile checks the profile and prepares its pattern and timezone.
func (p *Profile) compile() error {
	if p.Name == "" {
		return errors.New("profile without name")
	}

	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return fmt.Errorf("site %s: pattern: %w", p.Name, err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("site %s: pattern must capture the product id", p.Name)
	}

	selectors := []struct {
		name     string
		value    string
		required bool
	}{
		{"layout.frame", p.Layout.Frame, false},
		{"layout.block", p.Layout.Block, true},
		{"layout.item", p.Layout.Item, false},
		{"layout.load_more", p.Layout.LoadMore, false},
		{"fields.author", p.Fields.Author.Selector, true},
		{"fields.score", p.Fields.Score.Selector, true},
		{"fields.content", p.Fields.Content.Selector, true},
		{"fields.date", p.Fields.Date.Selector, true},
	}
	for _, s := range selectors {
		if s.value == "" {
			if s.required {
				return fmt.Errorf("site %s: %s is required", p.Name, s.name)
			}
			continue
		}
		if _, err := cascadia.ParseGroup(s.value); err != nil {
			return fmt.Errorf("site %s: %s %q: %w", p.Name, s.name, s.value, err)
		}
	}

	if p.Fields.DateLayout == "" {
		return fmt.Errorf("site %s: fields.date_layout is required", p.Name)
	}
	if p.Fields.Timezone == "" {
		p.Fields.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(p.Fields.Timezone)
	if err != nil {
		return fmt.Errorf("site %s: timezone: %w", p.Name, err)
	}

	p.re = re
	p.loc = loc
	return nil
}

// match returns the product id when rawURL belongs to this site.
func (p *Profile) match(rawURL string) (string, bool) {
	m := p.re.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Location is the timezone review dates are written in.
func (p *Profile) Location() *time.Location { return p.loc }

// Extractor returns a field extractor for this site's review items.
func (p *Profile) Extractor() *harvest.Extractor {
	return harvest.NewExtractor(p.Fields, p.loc)
}

// Info summarises the profile for API listings.
func (p *Profile) Info() models.SiteInfo {
	return models.SiteInfo{
		Name:     p.Name,
		Pattern:  p.Pattern,
		InFrame:  p.Layout.Frame != "",
		Timezone: p.Fields.Timezone,
	}
}
