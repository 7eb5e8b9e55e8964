package db

import (
	"time"
)

// SentinelRegionID stands in for "no region" in the region aggregate key.
// A NULL region_id cannot participate in the composite primary key.
const SentinelRegionID = -1

// Item maps monitor.items. One row per ingested news record, mutated in
// place by each processing stage and never deleted.
type Item struct {
	ItemID            int64      `gorm:"column:item_id;primaryKey;autoIncrement"`
	ItemUUID          string     `gorm:"column:item_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	SourceURL         string     `gorm:"column:source_url;type:text;not null;unique"`
	Title             string     `gorm:"column:title;type:text;not null"`
	Summary           string     `gorm:"column:summary;type:text;not null;default:''"`
	Source            string     `gorm:"column:source;type:text;not null"`
	PublishedAt       time.Time  `gorm:"column:published_at;type:date;not null"`
	Relevant          bool       `gorm:"column:relevant;type:boolean;not null;default:false"`
	Risk              bool       `gorm:"column:risk;type:boolean;not null;default:false"`
	Opportunity       bool       `gorm:"column:opportunity;type:boolean;not null;default:false"`
	GeoLevel          *string    `gorm:"column:geo_level;type:text"`
	RegionID          *int64     `gorm:"column:region_id;type:bigint"`
	NeedsDeepAnalysis bool       `gorm:"column:needs_deep_analysis;type:boolean;not null;default:false"`
	TopicClassified   bool       `gorm:"column:topic_classified;type:boolean;not null;default:false"`
	EntityResolved    bool       `gorm:"column:entity_resolved;type:boolean;not null;default:false"`
	RiskEvaluated     bool       `gorm:"column:risk_evaluated;type:boolean;not null;default:false"`
	CreatedAt         time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
	ResolvedAt        *time.Time `gorm:"column:resolved_at;type:timestamptz"`
}

func (Item) TableName() string { return "monitor.items" }

// ItemMention maps monitor.item_mentions: typed mention spans staged by the
// external NER tagger. Ordinal preserves detection order within an item,
// which drives region resolution.
type ItemMention struct {
	MentionID int64     `gorm:"column:mention_id;primaryKey;autoIncrement"`
	ItemID    int64     `gorm:"column:item_id;type:bigint;not null"`
	Kind      string    `gorm:"column:kind;type:text;not null"`
	Text      string    `gorm:"column:text;type:text;not null"`
	Ordinal   int       `gorm:"column:ordinal;type:integer;not null"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ItemMention) TableName() string { return "monitor.item_mentions" }

// Entity maps monitor.entities: the canonical deduplicated record for a
// real-world person, organization or location.
type Entity struct {
	EntityID        int64      `gorm:"column:entity_id;primaryKey;autoIncrement"`
	EntityUUID      string     `gorm:"column:entity_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	CanonicalName   string     `gorm:"column:canonical_name;type:text;not null;unique"`
	Kind            string     `gorm:"column:kind;type:text;not null"`
	IsKey           bool       `gorm:"column:is_key;type:boolean;not null;default:false"`
	Category        *string    `gorm:"column:category;type:text"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	LastMentionedAt *time.Time `gorm:"column:last_mentioned_at;type:date"`
}

func (Entity) TableName() string { return "monitor.entities" }

// EntityAlias maps monitor.entity_aliases. The alias text is globally
// unique: one alias resolves to exactly one entity.
type EntityAlias struct {
	AliasID   int64     `gorm:"column:alias_id;primaryKey;autoIncrement"`
	EntityID  int64     `gorm:"column:entity_id;type:bigint;not null"`
	Alias     string    `gorm:"column:alias;type:text;not null;unique"`
	IsPrimary bool      `gorm:"column:is_primary;type:boolean;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (EntityAlias) TableName() string { return "monitor.entity_aliases" }

// Region maps monitor.regions.
type Region struct {
	RegionID       int64   `gorm:"column:region_id;primaryKey;autoIncrement"`
	Name           string  `gorm:"column:name;type:text;not null"`
	NormalizedName string  `gorm:"column:normalized_name;type:text;not null"`
	Kind           string  `gorm:"column:kind;type:text;not null"`
	Country        string  `gorm:"column:country;type:text;not null;default:''"`
	Code           *string `gorm:"column:code;type:text"`
	IsTarget       bool    `gorm:"column:is_target;type:boolean;not null;default:false"`
}

func (Region) TableName() string { return "monitor.regions" }

// Topic maps monitor.topics.
type Topic struct {
	TopicID     int64     `gorm:"column:topic_id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:text;not null;unique"`
	Description string    `gorm:"column:description;type:text;not null;default:''"`
	Keywords    string    `gorm:"column:keywords;type:text;not null;default:''"`
	Enabled     bool      `gorm:"column:enabled;type:boolean;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Topic) TableName() string { return "monitor.topics" }

// ItemTopic maps monitor.item_topics.
type ItemTopic struct {
	ItemID     int64     `gorm:"column:item_id;type:bigint;primaryKey"`
	TopicID    int64     `gorm:"column:topic_id;type:bigint;primaryKey"`
	Score      float64   `gorm:"column:score;type:double precision;not null;default:1"`
	AssignedAt time.Time `gorm:"column:assigned_at;type:timestamptz;not null;default:now()"`
}

func (ItemTopic) TableName() string { return "monitor.item_topics" }

// ItemEntity maps monitor.item_entities. At most one row per (item, entity);
// repeated mentions raise frequency, never add rows.
type ItemEntity struct {
	ItemID     int64     `gorm:"column:item_id;type:bigint;primaryKey"`
	EntityID   int64     `gorm:"column:entity_id;type:bigint;primaryKey"`
	Role       string    `gorm:"column:role;type:text;not null;default:mentioned"`
	Frequency  int       `gorm:"column:frequency;type:integer;not null;default:1"`
	AssignedAt time.Time `gorm:"column:assigned_at;type:timestamptz;not null;default:now()"`
}

func (ItemEntity) TableName() string { return "monitor.item_entities" }

// DailyAggregate maps monitor.daily_aggregates: the single-row-per-date
// global rollup, replaced in place on each recompute.
type DailyAggregate struct {
	Day               time.Time `gorm:"column:day;type:date;primaryKey"`
	TotalItems        int64     `gorm:"column:total_items;type:bigint;not null;default:0"`
	TotalRelevant     int64     `gorm:"column:total_relevant;type:bigint;not null;default:0"`
	TotalRisk         int64     `gorm:"column:total_risk;type:bigint;not null;default:0"`
	TotalOpportunity  int64     `gorm:"column:total_opportunity;type:bigint;not null;default:0"`
	TotalMixed        int64     `gorm:"column:total_mixed;type:bigint;not null;default:0"`
	ActiveSources     int64     `gorm:"column:active_sources;type:bigint;not null;default:0"`
	NeedsDeepAnalysis int64     `gorm:"column:needs_deep_analysis;type:bigint;not null;default:0"`
	ComputedAt        time.Time `gorm:"column:computed_at;type:timestamptz;not null;default:now()"`
}

func (DailyAggregate) TableName() string { return "monitor.daily_aggregates" }

// TopicDailyAggregate maps monitor.topic_daily_aggregates.
type TopicDailyAggregate struct {
	Day              time.Time `gorm:"column:day;type:date;primaryKey"`
	TopicID          int64     `gorm:"column:topic_id;type:bigint;primaryKey"`
	TotalItems       int64     `gorm:"column:total_items;type:bigint;not null;default:0"`
	TotalRisk        int64     `gorm:"column:total_risk;type:bigint;not null;default:0"`
	TotalOpportunity int64     `gorm:"column:total_opportunity;type:bigint;not null;default:0"`
	AvgScore         float64   `gorm:"column:avg_score;type:double precision;not null;default:0"`
}

func (TopicDailyAggregate) TableName() string { return "monitor.topic_daily_aggregates" }

// RegionDailyAggregate maps monitor.region_daily_aggregates. RegionID uses
// SentinelRegionID for items without a resolved region so the composite key
// stays fully defined.
type RegionDailyAggregate struct {
	Day              time.Time `gorm:"column:day;type:date;primaryKey"`
	RegionID         int64     `gorm:"column:region_id;type:bigint;primaryKey;default:-1"`
	GeoLevel         string    `gorm:"column:geo_level;type:text;primaryKey"`
	TotalItems       int64     `gorm:"column:total_items;type:bigint;not null;default:0"`
	TotalRisk        int64     `gorm:"column:total_risk;type:bigint;not null;default:0"`
	TotalOpportunity int64     `gorm:"column:total_opportunity;type:bigint;not null;default:0"`
}

func (RegionDailyAggregate) TableName() string { return "monitor.region_daily_aggregates" }

// EntityDailyAggregate maps monitor.entity_daily_aggregates.
type EntityDailyAggregate struct {
	Day              time.Time `gorm:"column:day;type:date;primaryKey"`
	EntityID         int64     `gorm:"column:entity_id;type:bigint;primaryKey"`
	Mentions         int64     `gorm:"column:mentions;type:bigint;not null;default:0"`
	RiskItems        int64     `gorm:"column:risk_items;type:bigint;not null;default:0"`
	OpportunityItems int64     `gorm:"column:opportunity_items;type:bigint;not null;default:0"`
	TotalFrequency   int64     `gorm:"column:total_frequency;type:bigint;not null;default:0"`
}

func (EntityDailyAggregate) TableName() string { return "monitor.entity_daily_aggregates" }

// SourceDailyAggregate maps monitor.source_daily_aggregates.
type SourceDailyAggregate struct {
	Day              time.Time `gorm:"column:day;type:date;primaryKey"`
	Source           string    `gorm:"column:source;type:text;primaryKey"`
	TotalItems       int64     `gorm:"column:total_items;type:bigint;not null;default:0"`
	TotalRelevant    int64     `gorm:"column:total_relevant;type:bigint;not null;default:0"`
	TotalRisk        int64     `gorm:"column:total_risk;type:bigint;not null;default:0"`
	TotalOpportunity int64     `gorm:"column:total_opportunity;type:bigint;not null;default:0"`
}

func (SourceDailyAggregate) TableName() string { return "monitor.source_daily_aggregates" }

func autoMigrateModels() []any {
	return []any{
		&Item{},
		&ItemMention{},
		&Entity{},
		&EntityAlias{},
		&Region{},
		&Topic{},
		&ItemTopic{},
		&ItemEntity{},
		&DailyAggregate{},
		&TopicDailyAggregate{},
		&RegionDailyAggregate{},
		&EntityDailyAggregate{},
		&SourceDailyAggregate{},
	}
}
