// Package sites maps product URLs to the site profiles that know how to
// read their review panels.
package sites

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/use-agent/reviewharvest/models"
	"gopkg.in/yaml.v3"

	_ "time/tzdata"
)

//go:embed profiles.yaml
var builtinProfiles []byte

type document struct {
	Sites []*Profile `yaml:"sites"`
}

// Registry holds the known site profiles in match order.
type Registry struct {
	profiles []*Profile
	byName   map[string]*Profile
}

// Match is a URL resolved to a site.
type Match struct {
	Profile   *Profile
	URL       string // normalized
	ProductID string
}

// Builtin returns the registry of embedded profiles.
func Builtin() (*Registry, error) {
	return Parse(builtinProfiles)
}

// Load reads profiles from a YAML file; an empty path yields Builtin.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site profiles: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profiles document.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse site profiles: %w", err)
	}
	if len(doc.Sites) == 0 {
		return nil, fmt.Errorf("site profiles: no sites defined")
	}

	r := &Registry{byName: make(map[string]*Profile, len(doc.Sites))}
	for _, p := range doc.Sites {
		if err := p.compile(); err != nil {
			return nil, fmt.Errorf("site profiles: %w", err)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("site profiles: duplicate site %s", p.Name)
		}
		r.byName[p.Name] = p
		r.profiles = append(r.profiles, p)
	}
	return r, nil
}

// Lookup returns the profile registered under name.
func (r *Registry) Lookup(name string) (*Profile, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Profiles returns the profiles in match order.
func (r *Registry) Profiles() []*Profile {
	return append([]*Profile(nil), r.profiles...)
}

// Names returns the registered site names in match order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		names[i] = p.Name
	}
	return names
}

// Normalize trims whitespace and prefixes "https://" when no scheme is given.
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		u = "https://" + u
	}
	return u
}

// Resolve normalizes rawURL and finds the site it belongs to. It fails with
// ErrCodeInvalidInput for malformed input and ErrCodeUnsupportedSource when
// no profile matches.
func (r *Registry) Resolve(rawURL string) (*Match, error) {
	normalized := Normalize(rawURL)
	if normalized == "" {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput, "url is empty", nil)
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput, "malformed url", err)
	}
	if u.Host == "" {
		return nil, models.NewHarvestError(models.ErrCodeInvalidInput,
			fmt.Sprintf("url %q has no host", rawURL), nil)
	}

	for _, p := range r.profiles {
		if id, ok := p.match(normalized); ok {
			return &Match{Profile: p, URL: normalized, ProductID: id}, nil
		}
	}

	return nil, models.NewHarvestError(models.ErrCodeUnsupportedSource,
		fmt.Sprintf("no site profile matches %s (supported: %s)", u.Host, strings.Join(r.Names(), ", ")),
		nil)
}
