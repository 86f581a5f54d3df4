package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/storage/badger"
	"github.com/ternarybob/curo/internal/storage/sqlite"
)

// Manager owns both databases: SQLite for the content corpus and Badger for
// curation run history.
type Manager struct {
	sqliteDB *sqlite.SQLiteDB
	badgerDB *badger.BadgerDB

	corpus interfaces.CorpusStorage
	runs   interfaces.RunStorage

	logger arbor.ILogger
}

// NewManager opens both storage backends based on config
func NewManager(logger arbor.ILogger, config *common.Config) (*Manager, error) {
	sqliteDB, err := sqlite.NewSQLiteDB(logger, &config.Storage.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}

	badgerDB, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}

	return &Manager{
		sqliteDB: sqliteDB,
		badgerDB: badgerDB,
		corpus:   sqlite.NewCorpusStorage(sqliteDB, logger),
		runs:     badger.NewRunStorage(badgerDB, logger),
		logger:   logger,
	}, nil
}

// Corpus returns the content corpus storage
func (m *Manager) Corpus() interfaces.CorpusStorage {
	return m.corpus
}

// Runs returns the curation run storage
func (m *Manager) Runs() interfaces.RunStorage {
	return m.runs
}

// Close closes both databases
func (m *Manager) Close() error {
	var firstErr error
	if m.badgerDB != nil {
		if err := m.badgerDB.Close(); err != nil {
			firstErr = err
		}
	}
	if m.sqliteDB != nil {
		if err := m.sqliteDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
