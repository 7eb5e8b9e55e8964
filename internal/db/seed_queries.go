package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/juliananz/monitoreo-medios/internal/entity"
	"github.com/juliananz/monitoreo-medios/internal/geo"
	"github.com/juliananz/monitoreo-medios/internal/textnorm"
)

// SeedResult counts the reference rows written by SeedReferenceData.
type SeedResult struct {
	Topics      int
	Regions     int
	KeyEntities int
	Aliases     int
}

// SeedReferenceData populates the topic and region catalogs from the
// keywords config and pre-creates key organizations as key entities.
// Existing rows are left untouched, so re-seeding is safe.
func (p *Pool) SeedReferenceData(ctx context.Context, file *geo.File) (*SeedResult, error) {
	if file == nil {
		return nil, fmt.Errorf("keywords config is nil")
	}
	result := &SeedResult{}

	for name, keywords := range file.Topics {
		tag, err := p.Exec(ctx, `
INSERT INTO monitor.topics (name, keywords)
VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING
`, name, strings.Join(keywords, ","))
		if err != nil {
			return nil, fmt.Errorf("seed topic %q: %w", name, err)
		}
		result.Topics += int(tag.RowsAffected())
	}

	targetFolded := textnorm.Fold(file.Geography.TargetRegion)
	for _, region := range file.Geography.Regions {
		folded := textnorm.Fold(region)
		if folded == "" {
			continue
		}
		tag, err := p.Exec(ctx, `
INSERT INTO monitor.regions (name, normalized_name, kind, country, is_target)
VALUES ($1, $2, 'state', $3, $4)
ON CONFLICT (normalized_name, kind) DO NOTHING
`, strings.TrimSpace(region), folded, strings.TrimSpace(file.Geography.HomeCountry), folded == targetFolded)
		if err != nil {
			return nil, fmt.Errorf("seed region %q: %w", region, err)
		}
		result.Regions += int(tag.RowsAffected())
	}

	for _, country := range file.Geography.KeyCountries {
		folded := textnorm.Fold(country)
		if folded == "" {
			continue
		}
		tag, err := p.Exec(ctx, `
INSERT INTO monitor.regions (name, normalized_name, kind, country, is_target)
VALUES ($1, $2, 'country', $1, FALSE)
ON CONFLICT (normalized_name, kind) DO NOTHING
`, strings.TrimSpace(country), folded)
		if err != nil {
			return nil, fmt.Errorf("seed country %q: %w", country, err)
		}
		result.Regions += int(tag.RowsAffected())
	}

	for _, org := range file.Geography.KeyOrganizations {
		folded := textnorm.Fold(org.Name)
		if folded == "" {
			continue
		}
		entityID, _, err := p.CreateEntity(ctx, strings.TrimSpace(org.Name), entity.KindOrganization, folded)
		if err != nil {
			return nil, fmt.Errorf("seed key organization %q: %w", org.Name, err)
		}
		tag, err := p.Exec(ctx, `
UPDATE monitor.entities
SET is_key = TRUE,
    category = COALESCE(NULLIF($2, ''), category)
WHERE entity_id = $1
  AND NOT is_key
`, entityID, strings.TrimSpace(org.Category))
		if err != nil {
			return nil, fmt.Errorf("flag key organization %q: %w", org.Name, err)
		}
		result.KeyEntities += int(tag.RowsAffected())

		for _, alias := range org.Aliases {
			foldedAlias := textnorm.Fold(alias)
			if foldedAlias == "" || foldedAlias == folded {
				continue
			}
			inserted, err := p.AddAlias(ctx, entityID, foldedAlias, false)
			if err != nil {
				return nil, fmt.Errorf("seed alias %q for %q: %w", alias, org.Name, err)
			}
			if inserted {
				result.Aliases++
			}
		}
	}

	return result, nil
}
