package models

import "time"

// ContentItem represents one recommendable short-form video in the corpus.
// The ID is the external source identifier and is never regenerated.
type ContentItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	URL         string `json:"url"`

	// OriginTag is the search tag (or "related:<seedID>" marker) that produced
	// this item during ingestion. Empty for items of unknown provenance.
	OriginTag string `json:"origin_tag,omitempty"`

	// SessionID is the curation run that last wrote this item.
	SessionID string `json:"session_id,omitempty"`

	// Embedding is nil until embedding generation succeeds for this item.
	// All embeddings in one deployment share a single fixed dimension.
	Embedding []float32 `json:"embedding,omitempty"`

	// Comments hold auxiliary viewer text folded into the embedding input.
	Comments []Comment `json:"comments,omitempty"`

	// Consumed marks an item already served to the user. It flips true only
	// through the filtering workflow and back to false only via explicit reset.
	Consumed bool `json:"consumed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is one viewer comment attached to a content item.
type Comment struct {
	Text      string `json:"text"`
	LikeCount int64  `json:"like_count"`
}

// CommentText returns the comment texts in order.
func (c *ContentItem) CommentText() []string {
	texts := make([]string, 0, len(c.Comments))
	for _, comment := range c.Comments {
		texts = append(texts, comment.Text)
	}
	return texts
}

// ItemMatch pairs a content item with its similarity score for one query.
type ItemMatch struct {
	Item       *ContentItem `json:"item"`
	Similarity float64      `json:"similarity"`
}

// CorpusStats summarizes the corpus for operational endpoints.
type CorpusStats struct {
	TotalItems    int            `json:"total_items"`
	EmbeddedItems int            `json:"embedded_items"`
	ConsumedItems int            `json:"consumed_items"`
	ItemsByTag    map[string]int `json:"items_by_tag"`
	LastUpdated   time.Time      `json:"last_updated"`
}
