// Package geo infers the geographic classification of an item from its
// detected place and organization mentions.
package geo

import (
	"github.com/juliananz/monitoreo-medios/internal/textnorm"
)

// Geographic levels, most specific match wins in the order listed by
// Classify.
const (
	LevelInternational = "international"
	LevelRegional      = "regional"
	LevelNational      = "national"
	LevelIndeterminate = "indeterminate"
)

// RegionIndex maps a folded region name to its region id, loaded once per
// run from monitor.regions.
type RegionIndex map[string]int64

// Classification is the pure output of one classify call.
type Classification struct {
	Level             string
	RegionID          *int64
	NeedsDeepAnalysis bool
}

// Classifier evaluates place/org mention sets against an injected config
// and region index. It holds no mutable state and performs no I/O.
type Classifier struct {
	cfg     Config
	regions RegionIndex

	foreign map[string]struct{}
	states  map[string]struct{}
	keyOrgs map[string]struct{}
}

func NewClassifier(cfg Config, regions RegionIndex) *Classifier {
	states := make(map[string]struct{}, len(cfg.Regions))
	for _, region := range cfg.Regions {
		states[region] = struct{}{}
	}
	keyOrgs := make(map[string]struct{}, len(cfg.KeyOrganizations))
	for _, org := range cfg.KeyOrganizations {
		keyOrgs[org] = struct{}{}
	}
	if regions == nil {
		regions = make(RegionIndex)
	}
	return &Classifier{
		cfg:     cfg,
		regions: regions,
		foreign: cfg.foreignKeyCountries(),
		states:  states,
		keyOrgs: keyOrgs,
	}
}

// Classify infers the geographic level, the first matching region in
// detection order, and the deep-analysis routing flag. Precedence: a
// non-home key country beats the target region, which beats any other
// in-country region; anything else is indeterminate.
func (c *Classifier) Classify(places, orgs []string) Classification {
	foldedPlaces := textnorm.FoldAll(places)

	result := Classification{
		Level:    c.inferLevel(foldedPlaces),
		RegionID: c.firstRegion(foldedPlaces),
	}
	result.NeedsDeepAnalysis = c.needsDeepAnalysis(foldedPlaces, textnorm.FoldAll(orgs))
	return result
}

func (c *Classifier) inferLevel(foldedPlaces []string) string {
	for _, place := range foldedPlaces {
		if _, ok := c.foreign[place]; ok {
			return LevelInternational
		}
	}
	for _, place := range foldedPlaces {
		if place == c.cfg.TargetRegion {
			return LevelRegional
		}
	}
	for _, place := range foldedPlaces {
		if _, ok := c.states[place]; ok {
			return LevelNational
		}
	}
	return LevelIndeterminate
}

// firstRegion scans places in their original detection order and returns
// the first one present in the region index.
func (c *Classifier) firstRegion(foldedPlaces []string) *int64 {
	for _, place := range foldedPlaces {
		if id, ok := c.regions[place]; ok {
			regionID := id
			return &regionID
		}
	}
	return nil
}

// needsDeepAnalysis is true when a key organization or a non-home key
// country is mentioned. Pure function of the mention sets and the config.
func (c *Classifier) needsDeepAnalysis(foldedPlaces, foldedOrgs []string) bool {
	for _, org := range foldedOrgs {
		if _, ok := c.keyOrgs[org]; ok {
			return true
		}
	}
	for _, place := range foldedPlaces {
		if _, ok := c.foreign[place]; ok {
			return true
		}
	}
	return false
}
