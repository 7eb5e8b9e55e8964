// Package ingest accepts the external tagger's output documents, validates
// them against an embedded JSON schema and stages them for the resolution
// stage.
package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed mention_doc.schema.json
var mentionDocSchemaJSON string

// MentionSpan is one typed span detected by the tagger, in detection order.
type MentionSpan struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// TopicScore is one topic assignment with its match score.
type TopicScore struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// MentionDoc is the per-item handoff from the classification/NER stage.
type MentionDoc struct {
	SourceURL string        `json:"source_url"`
	Mentions  []MentionSpan `json:"mentions"`
	Topics    []TopicScore  `json:"topics,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateMentionDoc checks one payload against the schema and decodes it.
func ValidateMentionDoc(payload json.RawMessage) (*MentionDoc, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var doc MentionDoc
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func validateSemantics(doc *MentionDoc) error {
	if strings.TrimSpace(doc.SourceURL) == "" {
		return fmt.Errorf("source_url must not be blank")
	}
	for i, span := range doc.Mentions {
		if strings.TrimSpace(span.Text) == "" {
			return fmt.Errorf("mentions[%d].text must not be blank", i)
		}
	}
	seen := make(map[string]struct{}, len(doc.Topics))
	for i, topic := range doc.Topics {
		name := strings.TrimSpace(topic.Topic)
		if name == "" {
			return fmt.Errorf("topics[%d].topic must not be blank", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("topics[%d]: duplicate topic %q", i, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("mention_doc.schema.json", strings.NewReader(mentionDocSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("mention_doc.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compiledSchemaErr
}

func decodeStrictJSON(payload json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing data")
	}
	return value, nil
}
