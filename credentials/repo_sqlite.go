package credentials

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var _ Repo = (*SQLiteRepo)(nil)

const createCredentialsTable = `
CREATE TABLE IF NOT EXISTS credentials (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteRepo persists the pair in a SQLite key-value table. Useful when several
// tools on one machine share a login, or when the file layout needs to survive
// concurrent writers.
type SQLiteRepo struct {
	db   *sql.DB
	keys Keys
}

func NewSQLiteRepo(path string, keys Keys) (*SQLiteRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "[NewSQLiteRepo] create directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSQLiteRepo] open")
	}
	if _, err := db.Exec(createCredentialsTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[NewSQLiteRepo] create table")
	}
	return &SQLiteRepo{db: db, keys: keys}, nil
}

func (r *SQLiteRepo) Get() (*Pair, error) {
	rows, err := r.db.Query(`SELECT key, value FROM credentials`)
	if err != nil {
		return nil, errors.Wrap(err, "[SQLiteRepo.Get] query")
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(err, "[SQLiteRepo.Get] scan")
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[SQLiteRepo.Get] rows")
	}

	pair := &Pair{
		AccessToken:       values[r.keys.Access],
		RefreshToken:      values[r.keys.Refresh],
		NotificationToken: values[r.keys.Notification],
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return nil, NotLoggedInErr
	}
	return pair, nil
}

func (r *SQLiteRepo) Upsert(pair *Pair) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "[SQLiteRepo.Upsert] begin")
	}
	defer tx.Rollback()

	values := map[string]string{
		r.keys.Access:  pair.AccessToken,
		r.keys.Refresh: pair.RefreshToken,
	}
	if pair.NotificationToken != "" {
		values[r.keys.Notification] = pair.NotificationToken
	}
	for key, value := range values {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO credentials (key, value) VALUES (?, ?)`, key, value); err != nil {
			return errors.Wrap(err, "[SQLiteRepo.Upsert] insert")
		}
	}
	return errors.Wrap(tx.Commit(), "[SQLiteRepo.Upsert] commit")
}

func (r *SQLiteRepo) Clear() error {
	_, err := r.db.Exec(`DELETE FROM credentials`)
	return errors.Wrap(err, "[SQLiteRepo.Clear] delete")
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}
