package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/juliananz/monitoreo-medios/internal/geo"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Mention is one typed span staged by the external tagger, in detection
// order within its item.
type Mention struct {
	Kind    string
	Text    string
	Ordinal int
}

// LoadRegionIndex reads monitor.regions into the folded-name lookup map.
func (p *Pool) LoadRegionIndex(ctx context.Context) (geo.RegionIndex, error) {
	rows, err := p.Query(ctx, `
SELECT normalized_name, region_id
FROM monitor.regions
`)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	index := make(geo.RegionIndex, 64)
	for rows.Next() {
		var name string
		var regionID int64
		if err := rows.Scan(&name, &regionID); err != nil {
			return nil, fmt.Errorf("scan region row: %w", err)
		}
		if _, exists := index[name]; !exists {
			index[name] = regionID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate region rows: %w", err)
	}
	return index, nil
}

// ListPendingResolutionIDs returns relevant items whose entity-resolved
// stage flag is unset, oldest first. limit <= 0 means no limit.
func (p *Pool) ListPendingResolutionIDs(ctx context.Context, limit int) ([]int64, error) {
	builder := psql.
		Select("item_id").
		From("monitor.items").
		Where(sq.Eq{"relevant": true}).
		Where(sq.Eq{"entity_resolved": false}).
		OrderBy("item_id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending items query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending items: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, 256)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending item ids: %w", err)
	}
	return ids, nil
}

// LoadMentionsForItems fetches staged mentions for the given items, keyed
// by item id and ordered by detection ordinal.
func (p *Pool) LoadMentionsForItems(ctx context.Context, itemIDs []int64) (map[int64][]Mention, error) {
	mentions := make(map[int64][]Mention, len(itemIDs))
	if len(itemIDs) == 0 {
		return mentions, nil
	}

	query, args, err := psql.
		Select("item_id", "kind", "text", "ordinal").
		From("monitor.item_mentions").
		Where(sq.Eq{"item_id": itemIDs}).
		OrderBy("item_id", "ordinal").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build mentions query: %w", err)
	}

	rows, err := p.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item mentions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var m Mention
		if err := rows.Scan(&itemID, &m.Kind, &m.Text, &m.Ordinal); err != nil {
			return nil, fmt.Errorf("scan mention row: %w", err)
		}
		mentions[itemID] = append(mentions[itemID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mention rows: %w", err)
	}
	return mentions, nil
}

// EntityLink is a resolved (entity, frequency) pair for one item.
type EntityLink struct {
	EntityID  int64
	Role      string
	Frequency int
}

// ItemResolution is the full write set for one resolved item. It is applied
// atomically: the links, the geographic columns and the stage flag either
// all land or none do, with the flag written last.
type ItemResolution struct {
	ItemID         int64
	Links          []EntityLink
	Classification geo.Classification
	Day            time.Time
}

// ApplyItemResolution persists one item's resolution inside a single
// transaction.
func (p *Pool) ApplyItemResolution(ctx context.Context, res ItemResolution) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, link := range res.Links {
		if _, err := tx.Exec(ctx, `
INSERT INTO monitor.item_entities (item_id, entity_id, role, frequency)
VALUES ($1, $2, $3, $4)
ON CONFLICT (item_id, entity_id) DO UPDATE SET
	role = EXCLUDED.role,
	frequency = EXCLUDED.frequency
`, res.ItemID, link.EntityID, link.Role, link.Frequency); err != nil {
			return fmt.Errorf("upsert item entity link: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE monitor.entities
SET last_mentioned_at = GREATEST(COALESCE(last_mentioned_at, $2::date), $2::date)
WHERE entity_id = $1
`, link.EntityID, res.Day); err != nil {
			return fmt.Errorf("touch entity last mention: %w", err)
		}
	}

	var regionID *int64
	if res.Classification.RegionID != nil {
		regionID = res.Classification.RegionID
	}

	tag, err := tx.Exec(ctx, `
UPDATE monitor.items
SET
	geo_level = $2,
	region_id = $3,
	needs_deep_analysis = $4,
	entity_resolved = TRUE,
	resolved_at = now(),
	updated_at = now()
WHERE item_id = $1
`, res.ItemID, res.Classification.Level, regionID, res.Classification.NeedsDeepAnalysis)
	if err != nil {
		return fmt.Errorf("update item resolution columns: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit item resolution: %w", err)
	}
	return nil
}

// ItemDay returns an item's publication date.
func (p *Pool) ItemDay(ctx context.Context, itemID int64) (time.Time, error) {
	var day time.Time
	err := p.QueryRow(ctx, `
SELECT published_at
FROM monitor.items
WHERE item_id = $1
`, itemID).Scan(&day)
	if err != nil {
		return time.Time{}, fmt.Errorf("query item day: %w", err)
	}
	return day, nil
}

// FindItemIDBySourceURL resolves an item by its unique source URL.
// Returns ErrNoRows when unknown.
func (p *Pool) FindItemIDBySourceURL(ctx context.Context, sourceURL string) (int64, error) {
	var id int64
	err := p.QueryRow(ctx, `
SELECT item_id
FROM monitor.items
WHERE source_url = $1
`, sourceURL).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// LoadTopicIndex maps topic name to id for enabled topics.
func (p *Pool) LoadTopicIndex(ctx context.Context) (map[string]int64, error) {
	rows, err := p.Query(ctx, `
SELECT name, topic_id
FROM monitor.topics
WHERE enabled
`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64, 16)
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan topic row: %w", err)
		}
		index[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic rows: %w", err)
	}
	return index, nil
}

// StageMentions inserts staged mention spans and topic links for an item in
// one transaction, marking the topic stage when topics are present.
func (p *Pool) StageMentions(ctx context.Context, itemID int64, mentions []Mention, topics map[int64]float64) (int, error) {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inserted := 0
	for _, m := range mentions {
		tag, err := tx.Exec(ctx, `
INSERT INTO monitor.item_mentions (item_id, kind, text, ordinal)
VALUES ($1, $2, $3, $4)
ON CONFLICT (item_id, kind, text) DO NOTHING
`, itemID, m.Kind, m.Text, m.Ordinal)
		if err != nil {
			return 0, fmt.Errorf("insert item mention: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	for topicID, score := range topics {
		if _, err := tx.Exec(ctx, `
INSERT INTO monitor.item_topics (item_id, topic_id, score)
VALUES ($1, $2, $3)
ON CONFLICT (item_id, topic_id) DO UPDATE SET score = EXCLUDED.score
`, itemID, topicID, score); err != nil {
			return 0, fmt.Errorf("upsert item topic link: %w", err)
		}
	}

	if len(topics) > 0 {
		if _, err := tx.Exec(ctx, `
UPDATE monitor.items
SET topic_classified = TRUE, updated_at = now()
WHERE item_id = $1
`, itemID); err != nil {
			return 0, fmt.Errorf("mark item topic-classified: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit staged mentions: %w", err)
	}
	return inserted, nil
}
