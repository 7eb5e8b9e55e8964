package ingest

import (
	"encoding/json"
	"testing"
)

func TestValidateMentionDoc(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source_url": "https://example.com/news/1",
		"mentions": [
			{"kind": "place", "text": "Coahuila"},
			{"kind": "org", "text": "Tesla"}
		],
		"topics": [
			{"topic": "investment", "score": 3}
		]
	}`)

	doc, err := ValidateMentionDoc(payload)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if doc.SourceURL != "https://example.com/news/1" {
		t.Fatalf("unexpected source url: %q", doc.SourceURL)
	}
	if len(doc.Mentions) != 2 || doc.Mentions[0].Kind != "place" {
		t.Fatalf("unexpected mentions: %+v", doc.Mentions)
	}
	if len(doc.Topics) != 1 || doc.Topics[0].Score != 3 {
		t.Fatalf("unexpected topics: %+v", doc.Topics)
	}
}

func TestValidateMentionDocRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source_url": "https://example.com/news/1",
		"mentions": [{"kind": "animal", "text": "capybara"}]
	}`)
	if _, err := ValidateMentionDoc(payload); err == nil {
		t.Fatalf("expected schema rejection for unknown mention kind")
	}
}

func TestValidateMentionDocRejectsMissingSourceURL(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"mentions": []}`)
	if _, err := ValidateMentionDoc(payload); err == nil {
		t.Fatalf("expected schema rejection for missing source_url")
	}
}

func TestValidateMentionDocRejectsShortMentionText(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source_url": "https://example.com/news/1",
		"mentions": [{"kind": "person", "text": "X"}]
	}`)
	if _, err := ValidateMentionDoc(payload); err == nil {
		t.Fatalf("expected schema rejection for single-character mention")
	}
}

func TestValidateMentionDocRejectsDuplicateTopics(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source_url": "https://example.com/news/1",
		"mentions": [],
		"topics": [
			{"topic": "employment", "score": 1},
			{"topic": "employment", "score": 2}
		]
	}`)
	if _, err := ValidateMentionDoc(payload); err == nil {
		t.Fatalf("expected rejection for duplicate topic assignment")
	}
}

func TestValidateMentionDocRejectsTrailingData(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"source_url": "https://example.com/a", "mentions": []}{}`)
	if _, err := ValidateMentionDoc(payload); err == nil {
		t.Fatalf("expected rejection for trailing payload data")
	}
}

func TestSplitPayloadsArrayAndSingle(t *testing.T) {
	t.Parallel()

	payloads, err := splitPayloads([]byte(` [{"a":1},{"b":2}]`))
	if err != nil {
		t.Fatalf("unexpected split error: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}

	single, err := splitPayloads([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected split error: %v", err)
	}
	if len(single) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(single))
	}
}
