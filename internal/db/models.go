package db

import (
	"encoding/json"
	"time"
)

// Section maps news.sections. Sections are created at setup and are
// effectively static; deleting one is restricted while posts reference it.
type Section struct {
	SectionID   int       `gorm:"column:section_id;primaryKey;autoIncrement"`
	SectionUUID string    `gorm:"column:section_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Slug        string    `gorm:"column:slug;type:text;not null;unique"`
	Name        string    `gorm:"column:name;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Section) TableName() string { return "news.sections" }

// Post maps news.posts. The content_hash unique constraint is the sole
// deduplication guarantee across all producers.
type Post struct {
	PostID         int64           `gorm:"column:post_id;primaryKey;autoIncrement"`
	PostUUID       string          `gorm:"column:post_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Title          string          `gorm:"column:title;type:text;not null"`
	Summary        *string         `gorm:"column:summary;type:text"`
	Excerpt        *string         `gorm:"column:excerpt;type:text"`
	SourceName     string          `gorm:"column:source_name;type:text;not null"`
	SourceURL      string          `gorm:"column:source_url;type:text;not null"`
	SectionSlug    string          `gorm:"column:section_slug;type:text;not null"`
	Tags           json.RawMessage `gorm:"column:tags;type:jsonb;not null;default:'[]'"`
	ContentHash    string          `gorm:"column:content_hash;type:text;not null;unique"`
	Status         string          `gorm:"column:status;type:text;not null;default:published"`
	OriginType     string          `gorm:"column:origin_type;type:text;not null;default:RSS"`
	ImageURL       *string         `gorm:"column:image_url;type:text"`
	ScrapedContent *string         `gorm:"column:scraped_content;type:text"`
	ArticleSlug    *string         `gorm:"column:article_slug;type:text;unique"`
	CompanyName    *string         `gorm:"column:company_name;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Post) TableName() string { return "news.posts" }

// TagList decodes the jsonb tag array.
func (p *Post) TagList() []string {
	if p == nil || len(p.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(p.Tags, &tags); err != nil {
		return nil
	}
	return tags
}

// HasLongForm reports whether the post carries enriched long-form content.
// Enriched posts sort before plain ones in every selection list.
func (p *Post) HasLongForm() bool {
	return p != nil && p.ScrapedContent != nil && *p.ScrapedContent != ""
}

// Delivery maps news.deliveries: one fan-out obligation for one post on one
// channel. At most one row exists per (post, channel) pair.
type Delivery struct {
	DeliveryID    int64           `gorm:"column:delivery_id;primaryKey;autoIncrement"`
	DeliveryUUID  string          `gorm:"column:delivery_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	PostID        int64           `gorm:"column:post_id;type:bigint;not null;uniqueIndex:ux_deliveries_post_channel,priority:1"`
	Channel       string          `gorm:"column:channel;type:text;not null;uniqueIndex:ux_deliveries_post_channel,priority:2"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Status        string          `gorm:"column:status;type:text;not null;default:queued"`
	Attempts      int             `gorm:"column:attempts;type:integer;not null;default:0"`
	LastError     *string         `gorm:"column:last_error;type:text"`
	NextAttemptAt time.Time       `gorm:"column:next_attempt_at;type:timestamptz;not null;default:now()"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Delivery) TableName() string { return "news.deliveries" }

// Post status values.
const (
	PostStatusPublished = "published"
	PostStatusHidden    = "hidden"
)

// Delivery channel names.
const (
	ChannelWeb    = "web"
	ChannelSocial = "social"
)

// Delivery status values.
const (
	DeliveryStatusQueued = "queued"
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
	DeliveryStatusHeld   = "held"
)

func autoMigrateModels() []any {
	return []any{
		&Section{},
		&Post{},
		&Delivery{},
	}
}
