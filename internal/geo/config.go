package geo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/juliananz/monitoreo-medios/internal/textnorm"
)

// File is the on-disk keywords.yaml layout: the topic catalog plus the
// geography configuration, loaded once per run.
type File struct {
	Topics    map[string][]string `yaml:"topics"`
	Geography struct {
		TargetRegion     string            `yaml:"target_region"`
		HomeCountry      string            `yaml:"home_country"`
		Regions          []string          `yaml:"regions"`
		KeyCountries     []string          `yaml:"key_countries"`
		KeyOrganizations []KeyOrganization `yaml:"key_organizations"`
	} `yaml:"geography"`
}

// KeyOrganization is one watched organization. A YAML entry is either a
// bare name or a mapping carrying a category and extra aliases.
type KeyOrganization struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Aliases  []string `yaml:"aliases"`
}

func (k *KeyOrganization) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&k.Name)
	}
	type plain KeyOrganization
	return value.Decode((*plain)(k))
}

// LoadFile parses the keywords YAML file.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords config: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse keywords config: %w", err)
	}
	if file.Geography.TargetRegion == "" {
		return nil, fmt.Errorf("keywords config: geography.target_region is required")
	}
	if file.Geography.HomeCountry == "" {
		return nil, fmt.Errorf("keywords config: geography.home_country is required")
	}
	return &file, nil
}

// Config holds the folded geography enumeration the classifier matches
// against.
type Config struct {
	TargetRegion     string
	HomeCountry      string
	Regions          []string
	KeyCountries     []string
	KeyOrganizations []string
}

// Config folds the geography section into classifier form. Organization
// aliases fold into the key-organization set alongside the canonical names,
// so a mention of any surface form marks the item.
func (f *File) Config() Config {
	orgs := make([]string, 0, len(f.Geography.KeyOrganizations))
	for _, org := range f.Geography.KeyOrganizations {
		orgs = append(orgs, org.Name)
		orgs = append(orgs, org.Aliases...)
	}
	return Config{
		TargetRegion:     textnorm.Fold(f.Geography.TargetRegion),
		HomeCountry:      textnorm.Fold(f.Geography.HomeCountry),
		Regions:          textnorm.FoldAll(f.Geography.Regions),
		KeyCountries:     textnorm.FoldAll(f.Geography.KeyCountries),
		KeyOrganizations: textnorm.FoldAll(orgs),
	}
}

// foreignKeyCountries returns the key countries minus the home country.
// Foreign mentions outrank every domestic match, including the target
// region; downstream reporting depends on that precedence.
func (c Config) foreignKeyCountries() map[string]struct{} {
	foreign := make(map[string]struct{}, len(c.KeyCountries))
	for _, country := range c.KeyCountries {
		if country == c.HomeCountry {
			continue
		}
		foreign[country] = struct{}{}
	}
	return foreign
}
