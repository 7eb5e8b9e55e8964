package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/juliananz/monitoreo-medios/internal/db"
)

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// LoadResult summarizes one staging run.
type LoadResult struct {
	Documents        int `json:"documents"`
	ItemsMatched     int `json:"items_matched"`
	MentionsInserted int `json:"mentions_inserted"`
	TopicsLinked     int `json:"topics_linked"`
	Skipped          int `json:"skipped"`
}

// LoadFile validates and stages every document in a JSON file. The file
// holds either a single document or an array of them.
func (s *Service) LoadFile(ctx context.Context, path string) (*LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mention file: %w", err)
	}

	payloads, err := splitPayloads(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	docs := make([]*MentionDoc, 0, len(payloads))
	for i, payload := range payloads {
		doc, err := ValidateMentionDoc(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i, err)
		}
		docs = append(docs, doc)
	}

	return s.LoadDocs(ctx, docs)
}

// LoadDocs stages validated documents. Documents referencing unknown items
// or topics are skipped with a warning, not failed: the upstream catalogs
// may lag behind the tagger.
func (s *Service) LoadDocs(ctx context.Context, docs []*MentionDoc) (*LoadResult, error) {
	topicIndex, err := s.pool.LoadTopicIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topic index: %w", err)
	}

	result := &LoadResult{Documents: len(docs)}
	for _, doc := range docs {
		itemID, err := s.pool.FindItemIDBySourceURL(ctx, doc.SourceURL)
		if db.IsNoRows(err) {
			result.Skipped++
			s.logger.Warn().Str("source_url", doc.SourceURL).Msg("no item for tagged document; skipping")
			continue
		}
		if err != nil {
			return result, fmt.Errorf("find item for %s: %w", doc.SourceURL, err)
		}

		mentions := make([]db.Mention, 0, len(doc.Mentions))
		for ordinal, span := range doc.Mentions {
			mentions = append(mentions, db.Mention{
				Kind:    span.Kind,
				Text:    span.Text,
				Ordinal: ordinal,
			})
		}

		topics := make(map[int64]float64, len(doc.Topics))
		for _, topic := range doc.Topics {
			topicID, ok := topicIndex[topic.Topic]
			if !ok {
				s.logger.Warn().Str("topic", topic.Topic).Str("source_url", doc.SourceURL).Msg("unknown topic; skipping assignment")
				continue
			}
			topics[topicID] = topic.Score
		}

		inserted, err := s.pool.StageMentions(ctx, itemID, mentions, topics)
		if err != nil {
			return result, fmt.Errorf("stage mentions for %s: %w", doc.SourceURL, err)
		}
		result.ItemsMatched++
		result.MentionsInserted += inserted
		result.TopicsLinked += len(topics)
	}

	s.logger.Info().
		Int("documents", result.Documents).
		Int("items_matched", result.ItemsMatched).
		Int("mentions_inserted", result.MentionsInserted).
		Int("topics_linked", result.TopicsLinked).
		Int("skipped", result.Skipped).
		Msg("mention staging finished")
	return result, nil
}

func splitPayloads(raw []byte) ([]json.RawMessage, error) {
	trimmed := firstNonSpace(raw)
	if trimmed == '[' {
		var payloads []json.RawMessage
		if err := json.Unmarshal(raw, &payloads); err != nil {
			return nil, err
		}
		return payloads, nil
	}
	return []json.RawMessage{raw}, nil
}

func firstNonSpace(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}
