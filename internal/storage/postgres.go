package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgres connects to the networked relational store and brings its
// schema up to date.
func OpenPostgres(url string) (*SQLStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runPostgresMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLStore{db: db, d: postgresDialect}, nil
}
