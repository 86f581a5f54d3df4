package sqlite

const schemaSQL = `
-- Content corpus table
-- One row per recommendable short-form video; id is the external source id
CREATE TABLE IF NOT EXISTS content_items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	channel TEXT,
	url TEXT,
	origin_tag TEXT,
	session_id TEXT,
	embedding BLOB,
	comments TEXT,
	consumed INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

-- Indexes for the hot paths: similarity candidates and the embedding backfill
CREATE INDEX IF NOT EXISTS idx_items_consumed ON content_items(consumed) WHERE embedding IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_items_unembedded ON content_items(created_at) WHERE embedding IS NULL;
CREATE INDEX IF NOT EXISTS idx_items_origin_tag ON content_items(origin_tag);
CREATE INDEX IF NOT EXISTS idx_items_updated ON content_items(updated_at DESC);
`

// InitSchema initializes the database schema
func (s *SQLiteDB) InitSchema() error {
	_, err := s.db.Exec(schemaSQL)
	if err != nil {
		return err
	}
	s.logger.Info().Msg("Database schema initialized")
	return nil
}
