package store

import (
	"encoding/json"
	"time"
)

type Topic struct {
	ID          string
	Slug        string
	Title       string
	Description string
	SortOrder   int
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Subtopic struct {
	ID          string
	TopicID     string
	Slug        string
	Title       string
	Description string
	SortOrder   int
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Article is the primary content record. Content holds the block document
// (the JSON object the renderer consumes) exactly as the editor persisted it.
type Article struct {
	ID          string
	TopicID     string
	SubtopicID  *string
	Slug        string
	Title       string
	Description string
	CoverImage  string
	Content     json.RawMessage
	Published   bool
	Featured    bool
	SortOrder   int
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Note struct {
	ID        string
	Slug      string
	Title     string
	Content   json.RawMessage
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Project struct {
	ID          string
	Slug        string
	Title       string
	Description string
	RepoURL     string
	DemoURL     string
	CoverImage  string
	Content     json.RawMessage
	Published   bool
	Featured    bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID        string
	ArticleID string
	Author    string
	Body      string
	CreatedAt time.Time
}

// ArticleStats mirrors the Redis counters when Redis is configured, or is
// the source of truth when it is not.
type ArticleStats struct {
	ArticleID string
	Views     int64
	Likes     int64
}
