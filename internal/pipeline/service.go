// Package pipeline runs the entity-resolution stage: it consumes staged
// mention spans for relevant items, resolves them into canonical entities,
// infers the geographic classification and marks the stage flag.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/juliananz/monitoreo-medios/internal/db"
	"github.com/juliananz/monitoreo-medios/internal/entity"
	"github.com/juliananz/monitoreo-medios/internal/geo"
	"github.com/juliananz/monitoreo-medios/internal/textnorm"
)

// Mention span kinds as staged by the external tagger.
const (
	SpanPerson = "person"
	SpanOrg    = "org"
	SpanPlace  = "place"
)

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		logger: logger.With().Str("component", "resolve").Logger(),
	}
}

// ResolveResult summarizes one resolution run.
type ResolveResult struct {
	Processed       int `json:"processed"`
	EntitiesCreated int `json:"entities_created"`
	LinksWritten    int `json:"links_written"`
	Failed          int `json:"failed"`
}

// ResolveEntities processes items whose entity-resolved flag is unset.
// The alias and region indexes are loaded once and live for the run; each
// item is applied in its own transaction with the flag written last, so a
// failed item persists nothing and is picked up again on the next run.
func (s *Service) ResolveEntities(ctx context.Context, geoCfg geo.Config, limit int) (*ResolveResult, error) {
	aliasIndex, err := s.pool.LoadAliasIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alias index: %w", err)
	}
	regionIndex, err := s.pool.LoadRegionIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load region index: %w", err)
	}
	s.logger.Info().
		Int("aliases", len(aliasIndex)).
		Int("regions", len(regionIndex)).
		Str("target_region", geoCfg.TargetRegion).
		Msg("resolution caches loaded")

	itemIDs, err := s.pool.ListPendingResolutionIDs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}
	if len(itemIDs) == 0 {
		s.logger.Info().Msg("no items pending entity resolution")
		return &ResolveResult{}, nil
	}

	mentionsByItem, err := s.pool.LoadMentionsForItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("load staged mentions: %w", err)
	}

	resolver := entity.NewResolver(s.pool, aliasIndex)
	classifier := geo.NewClassifier(geoCfg, regionIndex)

	result := &ResolveResult{}
	for _, itemID := range itemIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.resolveItem(ctx, resolver, classifier, itemID, mentionsByItem[itemID], result); err != nil {
			result.Failed++
			s.logger.Error().Err(err).Int64("item_id", itemID).Msg("item resolution failed")
			continue
		}
		result.Processed++
	}

	s.logger.Info().
		Int("processed", result.Processed).
		Int("entities_created", result.EntitiesCreated).
		Int("links_written", result.LinksWritten).
		Int("failed", result.Failed).
		Msg("entity resolution finished")
	return result, nil
}

func (s *Service) resolveItem(
	ctx context.Context,
	resolver *entity.Resolver,
	classifier *geo.Classifier,
	itemID int64,
	mentions []db.Mention,
	result *ResolveResult,
) error {
	var places, orgs []string
	for _, m := range mentions {
		switch m.Kind {
		case SpanPlace:
			places = append(places, m.Text)
		case SpanOrg:
			orgs = append(orgs, m.Text)
		}
	}
	classification := classifier.Classify(places, orgs)

	// Frequencies accumulate per canonical entity before writing, so two
	// surface forms of the same entity yield one link row.
	type linkAgg struct {
		frequency int
	}
	links := make(map[int64]*linkAgg, len(mentions))
	order := make([]int64, 0, len(mentions))

	for _, m := range mentions {
		if textnorm.Fold(m.Text) == "" {
			continue
		}
		entityID, outcome, err := resolver.Resolve(ctx, m.Text, entity.KindForMention(m.Kind))
		if err != nil {
			if errors.Is(err, entity.ErrEmptyMention) {
				continue
			}
			return fmt.Errorf("resolve mention %q: %w", m.Text, err)
		}
		if outcome == entity.OutcomeCreatedEntity {
			result.EntitiesCreated++
		}
		agg, ok := links[entityID]
		if !ok {
			agg = &linkAgg{}
			links[entityID] = agg
			order = append(order, entityID)
		}
		agg.frequency++
	}

	day, err := s.pool.ItemDay(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item day: %w", err)
	}

	resolution := db.ItemResolution{
		ItemID:         itemID,
		Classification: classification,
		Day:            day,
	}
	for _, entityID := range order {
		resolution.Links = append(resolution.Links, db.EntityLink{
			EntityID:  entityID,
			Role:      "mentioned",
			Frequency: links[entityID].frequency,
		})
	}

	if err := s.pool.ApplyItemResolution(ctx, resolution); err != nil {
		return fmt.Errorf("apply resolution: %w", err)
	}
	result.LinksWritten += len(resolution.Links)
	return nil
}
