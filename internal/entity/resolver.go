// Package entity deduplicates free-text mentions into canonical entities
// through an alias index loaded once per run.
package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/juliananz/monitoreo-medios/internal/textnorm"
)

// Canonical entity kinds.
const (
	KindPerson       = "PERSON"
	KindOrganization = "ORG"
	KindLocation     = "LOCATION"
	KindMisc         = "MISC"
)

var ErrEmptyMention = errors.New("mention folds to empty string")

// CreateOutcome tags the result of an entity creation attempt so callers can
// tell an expected creation race apart from genuine corruption.
type CreateOutcome int

const (
	OutcomeCreated CreateOutcome = iota
	OutcomeFoundExisting
	OutcomeFailed
)

func (o CreateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeFoundExisting:
		return "found_existing"
	default:
		return "failed"
	}
}

// Outcome describes how a single mention was resolved.
type Outcome int

const (
	// OutcomeIndexHit means the folded mention was already in the alias
	// index; no write happened.
	OutcomeIndexHit Outcome = iota
	// OutcomeCreatedEntity means a new canonical entity was created.
	OutcomeCreatedEntity
	// OutcomeExistingEntity means creation raced with another writer and
	// the resolver fell back to the existing entity.
	OutcomeExistingEntity
)

// AliasIndex maps folded alias text to an entity id. It is a run-scoped
// write-through cache over monitor.entity_aliases and is not safe for
// concurrent mutation.
type AliasIndex map[string]int64

// Store is the persistence seam the resolver writes through.
type Store interface {
	CreateEntity(ctx context.Context, canonicalName, kind, alias string) (int64, CreateOutcome, error)
}

// Resolver maps raw mention strings to canonical entity ids, creating
// entities lazily on first unseen mention.
type Resolver struct {
	store Store
	index AliasIndex
}

func NewResolver(store Store, index AliasIndex) *Resolver {
	if index == nil {
		index = make(AliasIndex)
	}
	return &Resolver{store: store, index: index}
}

// Resolve returns the canonical entity id for a mention. Mentions that fold
// to the same text always resolve to the same id; an index hit performs no
// write. On a miss the raw mention becomes the canonical name, the folded
// form its primary alias, and the index is updated so later mentions in the
// same run resolve without a second write.
func (r *Resolver) Resolve(ctx context.Context, mention, kind string) (int64, Outcome, error) {
	folded := textnorm.Fold(mention)
	if folded == "" {
		return 0, OutcomeIndexHit, ErrEmptyMention
	}

	if id, ok := r.index[folded]; ok {
		return id, OutcomeIndexHit, nil
	}

	id, created, err := r.store.CreateEntity(ctx, strings.TrimSpace(mention), kind, folded)
	if err != nil {
		return 0, OutcomeIndexHit, fmt.Errorf("create entity for mention %q: %w", mention, err)
	}

	r.index[folded] = id
	if created == OutcomeFoundExisting {
		return id, OutcomeExistingEntity, nil
	}
	return id, OutcomeCreatedEntity, nil
}

// KindForMention maps a tagger span kind to the canonical entity kind.
func KindForMention(spanKind string) string {
	switch strings.ToLower(strings.TrimSpace(spanKind)) {
	case "person":
		return KindPerson
	case "org", "organization":
		return KindOrganization
	case "place", "location":
		return KindLocation
	default:
		return KindMisc
	}
}
