package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/juliananz/monitoreo-medios/internal/entity"
)

// LoadAliasIndex reads the full alias table into the per-run lookup map
// keyed by folded alias text.
func (p *Pool) LoadAliasIndex(ctx context.Context) (entity.AliasIndex, error) {
	rows, err := p.Query(ctx, `
SELECT alias, entity_id
FROM monitor.entity_aliases
`)
	if err != nil {
		return nil, fmt.Errorf("query entity aliases: %w", err)
	}
	defer rows.Close()

	index := make(entity.AliasIndex, 1024)
	for rows.Next() {
		var alias string
		var entityID int64
		if err := rows.Scan(&alias, &entityID); err != nil {
			return nil, fmt.Errorf("scan entity alias row: %w", err)
		}
		index[alias] = entityID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity alias rows: %w", err)
	}
	return index, nil
}

// CreateEntity inserts a canonical entity plus its primary alias. When the
// canonical name already exists (a parallel resolver won the race) the
// existing id is returned with OutcomeFoundExisting instead of an error.
// The alias insert is first-writer-wins: attaching an already-claimed alias
// to a second entity is a no-op.
func (p *Pool) CreateEntity(ctx context.Context, canonicalName, kind, alias string) (int64, entity.CreateOutcome, error) {
	name := strings.TrimSpace(canonicalName)
	if name == "" {
		return 0, entity.OutcomeFailed, fmt.Errorf("canonical name is required")
	}
	if strings.TrimSpace(alias) == "" {
		return 0, entity.OutcomeFailed, fmt.Errorf("alias is required")
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, entity.OutcomeFailed, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	outcome := entity.OutcomeCreated
	var entityID int64
	err = tx.QueryRow(ctx, `
INSERT INTO monitor.entities (canonical_name, kind)
VALUES ($1, $2)
ON CONFLICT (canonical_name) DO NOTHING
RETURNING entity_id
`, name, kind).Scan(&entityID)
	if IsNoRows(err) {
		outcome = entity.OutcomeFoundExisting
		if err := tx.QueryRow(ctx, `
SELECT entity_id
FROM monitor.entities
WHERE canonical_name = $1
`, name).Scan(&entityID); err != nil {
			return 0, entity.OutcomeFailed, fmt.Errorf("lookup entity by canonical name: %w", err)
		}
	} else if err != nil {
		return 0, entity.OutcomeFailed, fmt.Errorf("insert entity: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO monitor.entity_aliases (entity_id, alias, is_primary)
VALUES ($1, $2, TRUE)
ON CONFLICT (alias) DO NOTHING
`, entityID, alias); err != nil {
		return 0, entity.OutcomeFailed, fmt.Errorf("insert entity alias: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, entity.OutcomeFailed, fmt.Errorf("commit entity creation: %w", err)
	}
	return entityID, outcome, nil
}

// AddAlias attaches an extra alias to an existing entity. First writer wins:
// an alias already claimed by another entity is left untouched.
func (p *Pool) AddAlias(ctx context.Context, entityID int64, alias string, primary bool) (bool, error) {
	folded := strings.TrimSpace(alias)
	if folded == "" {
		return false, fmt.Errorf("alias is required")
	}
	tag, err := p.Exec(ctx, `
INSERT INTO monitor.entity_aliases (entity_id, alias, is_primary)
VALUES ($1, $2, $3)
ON CONFLICT (alias) DO NOTHING
`, entityID, folded, primary)
	if err != nil {
		return false, fmt.Errorf("insert alias: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
