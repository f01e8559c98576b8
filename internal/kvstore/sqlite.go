package kvstore

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/feedplex/feedplex/internal/kvstore/migrations"
)

// SQLite is an alternative persistent Store backed by a single kv table.
// Key ordering relies on SQLite's binary BLOB collation, which matches the
// lexicographic ordering the other backends provide.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database with WAL mode and runs pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

func (s *SQLite) Collection(name string) Collection {
	return &sqliteColl{db: s.db, name: name}
}

func (s *SQLite) Close() error { return s.db.Close() }

type sqliteColl struct {
	db   *sql.DB
	name string
}

func (c *sqliteColl) Get(key []byte) ([]byte, error) {
	var v []byte
	err := c.db.QueryRow(`SELECT v FROM kv WHERE collection = ? AND k = ?`, c.name, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *sqliteColl) Put(key, value []byte) error {
	_, err := c.db.Exec(`
		INSERT INTO kv (collection, k, v) VALUES (?, ?, ?)
		ON CONFLICT(collection, k) DO UPDATE SET v = excluded.v`,
		c.name, key, value)
	return err
}

func (c *sqliteColl) Delete(key []byte) error {
	_, err := c.db.Exec(`DELETE FROM kv WHERE collection = ? AND k = ?`, c.name, key)
	return err
}

func (c *sqliteColl) Range(lower, upper []byte, reverse bool, fn func(key, value []byte) error) error {
	query := `SELECT k, v FROM kv WHERE collection = ?`
	args := []any{c.name}
	if lower != nil {
		query += ` AND k >= ?`
		args = append(args, lower)
	}
	if upper != nil {
		query += ` AND k < ?`
		args = append(args, upper)
	}
	if reverse {
		query += ` ORDER BY k DESC`
	} else {
		query += ` ORDER BY k ASC`
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return rows.Err()
}
