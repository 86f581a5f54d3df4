package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unsafe"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
)

// CorpusStorage implements interfaces.CorpusStorage
type CorpusStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewCorpusStorage creates a new content corpus storage instance
func NewCorpusStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.CorpusStorage {
	return &CorpusStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or merges a content item by id. The merge never downgrades:
// empty incoming text fields, a nil embedding or nil comments all leave the
// stored values in place, and consumed and created_at are never touched on
// conflict.
func (c *CorpusStorage) Upsert(ctx context.Context, item *models.ContentItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("content item requires an id")
	}

	var embeddingData []byte
	if len(item.Embedding) > 0 {
		if dim := c.db.config.EmbeddingDimension; dim > 0 && len(item.Embedding) != dim {
			return fmt.Errorf("embedding dimension %d does not match configured dimension %d", len(item.Embedding), dim)
		}
		var err error
		embeddingData, err = serializeEmbedding(item.Embedding)
		if err != nil {
			return fmt.Errorf("failed to serialize embedding: %w", err)
		}
	}

	var commentsJSON sql.NullString
	if item.Comments != nil {
		data, err := json.Marshal(item.Comments)
		if err != nil {
			return fmt.Errorf("failed to marshal comments: %w", err)
		}
		commentsJSON = sql.NullString{String: string(data), Valid: true}
	}

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	query := `
		INSERT INTO content_items (
			id, title, description, channel, url, origin_tag, session_id,
			embedding, comments, consumed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = CASE WHEN excluded.title != '' THEN excluded.title ELSE content_items.title END,
			description = CASE WHEN excluded.description != '' THEN excluded.description ELSE content_items.description END,
			channel = CASE WHEN excluded.channel != '' THEN excluded.channel ELSE content_items.channel END,
			url = CASE WHEN excluded.url != '' THEN excluded.url ELSE content_items.url END,
			origin_tag = CASE WHEN excluded.origin_tag != '' THEN excluded.origin_tag ELSE content_items.origin_tag END,
			session_id = CASE WHEN excluded.session_id != '' THEN excluded.session_id ELSE content_items.session_id END,
			embedding = COALESCE(excluded.embedding, content_items.embedding),
			comments = COALESCE(excluded.comments, content_items.comments),
			updated_at = excluded.updated_at
	`

	_, err := c.db.db.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.Channel,
		item.URL,
		item.OriginTag,
		item.SessionID,
		embeddingData,
		commentsJSON,
		createdAt.Unix(),
		updatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
	}

	return nil
}

// GetItem retrieves an item by ID, returning (nil, nil) when absent
func (c *CorpusStorage) GetItem(ctx context.Context, id string) (*models.ContentItem, error) {
	query := `
		SELECT id, title, description, channel, url, origin_tag, session_id,
			   embedding, comments, consumed, created_at, updated_at
		FROM content_items
		WHERE id = ?
	`

	row := c.db.db.QueryRowContext(ctx, query, id)
	item, err := c.scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

// FindSimilar loads every unconsumed embedded item and ranks it by cosine
// similarity in Go. The corpus stays small enough that a full candidate scan
// beats maintaining an ANN index.
func (c *CorpusStorage) FindSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]models.ItemMatch, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	selectSQL := `
		SELECT id, title, description, channel, url, origin_tag, session_id,
			   embedding, comments, consumed, created_at, updated_at
		FROM content_items
		WHERE consumed = 0 AND embedding IS NOT NULL
	`

	rows, err := c.db.db.QueryContext(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	matches := make([]models.ItemMatch, 0)
	for rows.Next() {
		item, err := c.scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}

		if len(item.Embedding) != len(query) {
			c.logger.Warn().
				Str("item_id", item.ID).
				Int("item_dim", len(item.Embedding)).
				Int("query_dim", len(query)).
				Msg("Skipping item with mismatched embedding dimension")
			continue
		}

		similarity := cosineSimilarity(query, item.Embedding)
		if similarity >= threshold {
			matches = append(matches, models.ItemMatch{Item: item, Similarity: similarity})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Best first; ties break toward the more recently updated item, then id
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if !matches[i].Item.UpdatedAt.Equal(matches[j].Item.UpdatedAt) {
			return matches[i].Item.UpdatedAt.After(matches[j].Item.UpdatedAt)
		}
		return matches[i].Item.ID < matches[j].Item.ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// MarkConsumed sets consumed=true for the given ids. Unknown ids are ignored.
func (c *CorpusStorage) MarkConsumed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE content_items SET consumed = 1 WHERE id IN (%s)`, placeholders(len(ids)))

	_, err := c.db.db.ExecContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to mark items consumed: %w", err)
	}
	return nil
}

// ResetConsumed sets consumed=false for the given ids and returns the number
// of rows actually flipped.
func (c *CorpusStorage) ResetConsumed(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`UPDATE content_items SET consumed = 0 WHERE consumed = 1 AND id IN (%s)`, placeholders(len(ids)))

	result, err := c.db.db.ExecContext(ctx, query, idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to reset consumed flags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ResetAllConsumed sets consumed=false for every item
func (c *CorpusStorage) ResetAllConsumed(ctx context.Context) (int, error) {
	result, err := c.db.db.ExecContext(ctx, `UPDATE content_items SET consumed = 0 WHERE consumed = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset consumed flags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ListUnembedded returns up to limit items lacking an embedding, oldest first
func (c *CorpusStorage) ListUnembedded(ctx context.Context, limit int) ([]*models.ContentItem, error) {
	query := `
		SELECT id, title, description, channel, url, origin_tag, session_id,
			   embedding, comments, consumed, created_at, updated_at
		FROM content_items
		WHERE embedding IS NULL
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := c.db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unembedded items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.ContentItem, 0)
	for rows.Next() {
		item, err := c.scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SetEmbedding attaches an embedding to an existing item
func (c *CorpusStorage) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("embedding is empty")
	}
	if dim := c.db.config.EmbeddingDimension; dim > 0 && len(embedding) != dim {
		return fmt.Errorf("embedding dimension %d does not match configured dimension %d", len(embedding), dim)
	}

	embeddingData, err := serializeEmbedding(embedding)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	result, err := c.db.db.ExecContext(ctx,
		`UPDATE content_items SET embedding = ?, updated_at = ? WHERE id = ?`,
		embeddingData, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set embedding for %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %s not found", id)
	}
	return nil
}

// Count returns the total number of items
func (c *CorpusStorage) Count(ctx context.Context) (int, error) {
	var count int
	err := c.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_items`).Scan(&count)
	return count, err
}

// CountWithEmbedding returns the number of items carrying an embedding
func (c *CorpusStorage) CountWithEmbedding(ctx context.Context) (int, error) {
	var count int
	err := c.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_items WHERE embedding IS NOT NULL`).Scan(&count)
	return count, err
}

// Stats returns aggregate corpus statistics
func (c *CorpusStorage) Stats(ctx context.Context) (*models.CorpusStats, error) {
	stats := &models.CorpusStats{
		ItemsByTag: make(map[string]int),
	}

	row := c.db.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			   COUNT(embedding),
			   COALESCE(SUM(consumed), 0),
			   COALESCE(MAX(updated_at), 0)
		FROM content_items
	`)

	var lastUpdated int64
	if err := row.Scan(&stats.TotalItems, &stats.EmbeddedItems, &stats.ConsumedItems, &lastUpdated); err != nil {
		return nil, fmt.Errorf("failed to query corpus stats: %w", err)
	}
	if lastUpdated > 0 {
		stats.LastUpdated = time.Unix(lastUpdated, 0)
	}

	rows, err := c.db.db.QueryContext(ctx, `
		SELECT origin_tag, COUNT(*)
		FROM content_items
		WHERE origin_tag != ''
		GROUP BY origin_tag
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag string
		var count int
		if err := rows.Scan(&tag, &count); err != nil {
			return nil, err
		}
		stats.ItemsByTag[tag] = count
	}

	return stats, rows.Err()
}

// Close closes the underlying database handle
func (c *CorpusStorage) Close() error {
	return c.db.Close()
}

// Helper functions

func (c *CorpusStorage) scanItem(scan func(dest ...interface{}) error) (*models.ContentItem, error) {
	var item models.ContentItem
	var embeddingData []byte
	var commentsJSON sql.NullString
	var description, channel, url, originTag, sessionID sql.NullString
	var consumed int
	var createdAt, updatedAt int64

	err := scan(
		&item.ID,
		&item.Title,
		&description,
		&channel,
		&url,
		&originTag,
		&sessionID,
		&embeddingData,
		&commentsJSON,
		&consumed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.Channel = channel.String
	item.URL = url.String
	item.OriginTag = originTag.String
	item.SessionID = sessionID.String
	item.Consumed = consumed != 0

	if len(embeddingData) > 0 {
		item.Embedding, err = deserializeEmbedding(embeddingData)
		if err != nil {
			c.logger.Warn().Err(err).Str("item_id", item.ID).Msg("Failed to deserialize embedding")
		}
	}

	if commentsJSON.Valid && commentsJSON.String != "" {
		if err := json.Unmarshal([]byte(commentsJSON.String), &item.Comments); err != nil {
			c.logger.Warn().Err(err).Str("item_id", item.ID).Msg("Failed to unmarshal comments")
		}
	}

	item.CreatedAt = time.Unix(createdAt, 0)
	item.UpdatedAt = time.Unix(updatedAt, 0)

	return &item, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// cosineSimilarity computes the cosine of the angle between two equal-length
// vectors. A zero-magnitude vector yields 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Embedding serialization helpers
func serializeEmbedding(embedding []float32) ([]byte, error) {
	// Simple binary encoding: just write the float32 array as bytes
	data := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		bits := uint32(0)
		// Convert float32 to uint32 bits
		*(*float32)(unsafe.Pointer(&bits)) = v
		// Write as little-endian
		data[i*4] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}
	return data, nil
}

func deserializeEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding data length: %d", len(data))
	}

	embedding := make([]float32, len(data)/4)
	for i := 0; i < len(embedding); i++ {
		bits := uint32(data[i*4]) |
			uint32(data[i*4+1])<<8 |
			uint32(data[i*4+2])<<16 |
			uint32(data[i*4+3])<<24
		embedding[i] = *(*float32)(unsafe.Pointer(&bits))
	}
	return embedding, nil
}
