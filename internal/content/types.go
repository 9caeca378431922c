// Package content holds the client-side view of the content service's
// records: requests, their research/summary/content artifacts, and the
// scheduled posting queue. The backend owns every record; these types only
// describe what the client reads and which transitions it may offer.

package content

import (
	"errors"
	"fmt"
	"strings"
)

// ContentType is the shape of the generated artifact.
type ContentType string

const (
	ContentTypeThread  ContentType = "thread"
	ContentTypeArticle ContentType = "article"
)

// ContentTypes lists the supported content types in display order.
func ContentTypes() []ContentType {
	return []ContentType{ContentTypeThread, ContentTypeArticle}
}

// Valid reports whether the content type is one the backend accepts.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeThread, ContentTypeArticle:
		return true
	}
	return false
}

// Platform is the publishing destination for a request.
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformTypefully Platform = "typefully"
)

// Platforms lists the supported platforms in display order.
func Platforms() []Platform {
	return []Platform{PlatformX, PlatformTypefully}
}

// Valid reports whether the platform is one the backend accepts.
func (p Platform) Valid() bool {
	switch p {
	case PlatformX, PlatformTypefully:
		return true
	}
	return false
}

// Request is one submitted topic and its generation progress.
type Request struct {
	ID                     int64       `json:"id"`
	OriginalTopic          string      `json:"original_topic"`
	ContentTopic           string      `json:"content_topic,omitempty"`
	ContentType            ContentType `json:"content_type"`
	Platform               Platform    `json:"platform"`
	Status                 string      `json:"status"`
	CreatedAt              Timestamp   `json:"created_at"`
	Persona                string      `json:"persona,omitempty"`
	Tone                   string      `json:"tone,omitempty"`
	Style                  string      `json:"style,omitempty"`
	Language               string      `json:"language,omitempty"`
	AutoPost               bool        `json:"auto_post"`
	IncludeSourceCitations bool        `json:"include_source_citations"`
	ThreadTweetCount       int         `json:"thread_tweet_count,omitempty"`
	MaxArticleLength       int         `json:"max_article_length,omitempty"`
	CitationCount          int         `json:"citation_count,omitempty"`
}

// RefinedTopic returns the refined topic or "N/A" when the topic stage has
// not produced one yet.
func (r Request) RefinedTopic() string {
	if topic := strings.TrimSpace(r.ContentTopic); topic != "" {
		return topic
	}
	return "N/A"
}

// NewRequest is the payload for a topic submission.
type NewRequest struct {
	OriginalTopic          string      `json:"original_topic"`
	ContentType            ContentType `json:"content_type"`
	Platform               Platform    `json:"platform"`
	AutoPost               bool        `json:"auto_post"`
	IncludeSourceCitations bool        `json:"include_source_citations"`
	Persona                string      `json:"persona,omitempty"`
	ThreadTweetCount       int         `json:"thread_tweet_count,omitempty"`
	MaxArticleLength       int         `json:"max_article_length,omitempty"`
	CitationCount          int         `json:"citation_count,omitempty"`
}

// ErrInvalidRequest marks submission payloads rejected before any call.
var ErrInvalidRequest = errors.New("content: invalid request")

// Normalized trims free-text fields.
func (r NewRequest) Normalized() NewRequest {
	r.OriginalTopic = strings.TrimSpace(r.OriginalTopic)
	r.Persona = strings.TrimSpace(r.Persona)
	r.ContentType = ContentType(strings.ToLower(strings.TrimSpace(string(r.ContentType))))
	r.Platform = Platform(strings.ToLower(strings.TrimSpace(string(r.Platform))))
	return r
}

// Validate enforces the fields the backend requires.
func (r NewRequest) Validate() error {
	if strings.TrimSpace(r.OriginalTopic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if !r.ContentType.Valid() {
		return fmt.Errorf("%w: content type %q not supported", ErrInvalidRequest, r.ContentType)
	}
	if !r.Platform.Valid() {
		return fmt.Errorf("%w: platform %q not supported", ErrInvalidRequest, r.Platform)
	}
	return nil
}

// Source is one verified research source.
type Source struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	SourceType     string  `json:"source_type"`
	RelevanceScore float64 `json:"relevance_score"`
	Summary        string  `json:"summary"`
}

// Label prefers the title and falls back to the URL.
func (s Source) Label() string {
	if title := strings.TrimSpace(s.Title); title != "" {
		return title
	}
	return s.URL
}

// Summary is the combined research summary for a request.
type Summary struct {
	CombinedSummary string   `json:"combined_summary"`
	KeyPoints       []string `json:"key_points"`
}

// ItemStatusDraft is the only content status that accepts lifecycle transitions.
const ItemStatusDraft = "draft"

// Item is the generated artifact belonging to a request.
type Item struct {
	ID               *int64 `json:"id"`
	GeneratedContent string `json:"generated_content"`
	Status           string `json:"status"`
}

// Actionable reports whether approve/schedule may be offered.
func (i *Item) Actionable() bool {
	if i == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(i.Status), ItemStatusDraft)
}

// Detail is the composite returned for a single request.
type Detail struct {
	Request Request  `json:"request"`
	Sources []Source `json:"sources"`
	Summary *Summary `json:"summary"`
	Content *Item    `json:"content"`
}

// ContentID resolves the content item identifier used for transitions.
func (d Detail) ContentID() (int64, bool) {
	if d.Content == nil || d.Content.ID == nil {
		return 0, false
	}
	return *d.Content.ID, true
}

// UsageStats reports the caller's API quota counters.
type UsageStats struct {
	APIQuotaUsedToday int    `json:"api_quota_used_today"`
	APIQuotaDaily     int    `json:"api_quota_daily"`
	QuotaResetDate    string `json:"quota_reset_date"`
}

// UserConfiguration holds the writing preferences applied by the pipeline.
type UserConfiguration struct {
	Persona            string `json:"persona,omitempty"`
	Tone               string `json:"tone,omitempty"`
	Style              string `json:"style,omitempty"`
	Language           string `json:"language,omitempty"`
	PlatformPreference string `json:"platform_preference,omitempty"`
	ResearchPreference string `json:"research_preference,omitempty"`
}
