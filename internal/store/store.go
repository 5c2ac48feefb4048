// Package store opens the canonical sqlite database, applies migrations and
// bundles the repositories the services consume. The database file is a
// compatibility surface: other applications read it directly.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tarkovsync/internal/filex"
	"github.com/dmitrijs2005/tarkovsync/internal/migrations"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/markers"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/quests"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/verifications"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Markers       markers.Repository
	Quests        quests.Repository
	Verifications verifications.Repository
	Metadata      metadata.Repository
}

type Store struct {
	DB    *sql.DB
	Repos *Repositories
}

// Open ensures the database directory exists, opens the sqlite file, runs
// migrations and returns the repository bundle. All writers of one
// invocation share this single connection, which serializes writes.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db, Repos: NewRepositories(db)}, nil
}

// NewRepositories binds the repository set to the given database handle.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Markers:       markers.NewSQLiteRepository(db),
		Quests:        quests.NewSQLiteRepository(db),
		Verifications: verifications.NewSQLiteRepository(db),
		Metadata:      metadata.NewSQLiteRepository(db),
	}
}

func (s *Store) Close() error {
	return s.DB.Close()
}
