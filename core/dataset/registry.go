// Package dataset resolves site names to their yearly CSV snapshots and loads
// them into memory.
package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/atlasgrid/geochange/core/model"
)

// ErrUnknownSite is returned when a requested site has no configured datasets.
var ErrUnknownSite = errors.New("unknown site")

// SiteConfig names the two snapshot files compared for a site.
type SiteConfig struct {
	// BaselineYear and ComparisonYear label the snapshots, e.g. "2021"
	// and "2023".
	BaselineYear   string `json:"baseline_year"`
	ComparisonYear string `json:"comparison_year"`
	// BaselinePath and ComparisonPath locate the CSV exports.
	BaselinePath   string `json:"baseline_path"`
	ComparisonPath string `json:"comparison_path"`
}

// Validate checks that all fields of the site entry are set.
func (c SiteConfig) Validate() error {
	if c.BaselineYear == "" || c.ComparisonYear == "" {
		return fmt.Errorf("baseline_year and comparison_year are required")
	}
	if c.BaselinePath == "" || c.ComparisonPath == "" {
		return fmt.Errorf("baseline_path and comparison_path are required")
	}
	return nil
}

// Config maps site names to their snapshot files.
type Config map[string]SiteConfig

// Registry loads snapshot pairs for configured sites.
type Registry struct {
	sites Config
}

// NewRegistry validates the configuration and returns a Registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if len(cfg) == 0 {
		return nil, fmt.Errorf("no datasets configured")
	}
	for site, sc := range cfg {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", site, err)
		}
	}
	return &Registry{sites: cfg}, nil
}

// Sites returns the configured site names in stable order.
func (r *Registry) Sites() []string {
	names := make([]string, 0, len(r.sites))
	for s := range r.sites {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// Site returns the configuration for the named site.
func (r *Registry) Site(name string) (SiteConfig, error) {
	sc, ok := r.sites[name]
	if !ok {
		return SiteConfig{}, fmt.Errorf("%w: %q (configured: %v)", ErrUnknownSite, name, r.Sites())
	}
	return sc, nil
}

// LoadPair loads the baseline and comparison snapshots for the named site.
func (r *Registry) LoadPair(name string) (base, cmp model.Snapshot, err error) {
	sc, err := r.Site(name)
	if err != nil {
		return model.Snapshot{}, model.Snapshot{}, err
	}
	base, err = Load(sc.BaselinePath, sc.BaselineYear)
	if err != nil {
		return model.Snapshot{}, model.Snapshot{}, fmt.Errorf("baseline snapshot: %w", err)
	}
	cmp, err = Load(sc.ComparisonPath, sc.ComparisonYear)
	if err != nil {
		return model.Snapshot{}, model.Snapshot{}, fmt.Errorf("comparison snapshot: %w", err)
	}
	return base, cmp, nil
}
