package entity

import (
	"context"
	"testing"
)

type fakeStore struct {
	nextID    int64
	created   map[string]int64
	raceNames map[string]int64
	calls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		created:   make(map[string]int64),
		raceNames: make(map[string]int64),
	}
}

func (s *fakeStore) CreateEntity(_ context.Context, canonicalName, _, _ string) (int64, CreateOutcome, error) {
	s.calls++
	if id, ok := s.raceNames[canonicalName]; ok {
		return id, OutcomeFoundExisting, nil
	}
	if id, ok := s.created[canonicalName]; ok {
		return id, OutcomeFoundExisting, nil
	}
	id := s.nextID
	s.nextID++
	s.created[canonicalName] = id
	return id, OutcomeCreated, nil
}

func TestResolveCreatesThenHitsIndex(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	resolver := NewResolver(store, make(AliasIndex))

	id1, outcome, err := resolver.Resolve(context.Background(), "Grupo Industrial Saltillo", KindOrganization)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if outcome != OutcomeCreatedEntity {
		t.Fatalf("expected first mention to create, got %v", outcome)
	}

	id2, outcome, err := resolver.Resolve(context.Background(), "Grupo Industrial Saltillo", KindOrganization)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if outcome != OutcomeIndexHit {
		t.Fatalf("expected second mention to hit the index, got %v", outcome)
	}
	if id1 != id2 {
		t.Fatalf("resolution is not deterministic: %d vs %d", id1, id2)
	}
	if store.calls != 1 {
		t.Fatalf("expected exactly one store write, got %d", store.calls)
	}
}

func TestResolveFoldsSurfaceForms(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(newFakeStore(), make(AliasIndex))

	id1, _, err := resolver.Resolve(context.Background(), "México", KindLocation)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	id2, outcome, err := resolver.Resolve(context.Background(), "MEXICO", KindLocation)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if outcome != OutcomeIndexHit {
		t.Fatalf("expected diacritic variant to hit the index, got %v", outcome)
	}
	if id1 != id2 {
		t.Fatalf("surface forms resolved to different entities: %d vs %d", id1, id2)
	}
}

func TestResolveRecoversFromCreationRace(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.raceNames["Tesla"] = 42

	resolver := NewResolver(store, make(AliasIndex))

	id, outcome, err := resolver.Resolve(context.Background(), "Tesla", KindOrganization)
	if err != nil {
		t.Fatalf("creation race must not surface as an error: %v", err)
	}
	if outcome != OutcomeExistingEntity {
		t.Fatalf("expected fallback to the existing entity, got %v", outcome)
	}
	if id != 42 {
		t.Fatalf("expected the racing writer's id 42, got %d", id)
	}

	id2, outcome, err := resolver.Resolve(context.Background(), "tesla", KindOrganization)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if outcome != OutcomeIndexHit || id2 != 42 {
		t.Fatalf("expected index hit on 42 after race recovery, got outcome=%v id=%d", outcome, id2)
	}
}

func TestResolveRejectsBlankMention(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(newFakeStore(), make(AliasIndex))
	if _, _, err := resolver.Resolve(context.Background(), "   ", KindPerson); err == nil {
		t.Fatalf("expected error for blank mention")
	}
}

func TestKindForMention(t *testing.T) {
	t.Parallel()

	if got := KindForMention("person"); got != KindPerson {
		t.Fatalf("unexpected kind: %q", got)
	}
	if got := KindForMention("Place"); got != KindLocation {
		t.Fatalf("unexpected kind: %q", got)
	}
	if got := KindForMention("widget"); got != KindMisc {
		t.Fatalf("unexpected kind: %q", got)
	}
}
