package sessions

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/types"
)

// PostgresStore keeps sessions in the shared relational table the HTTP layer
// writes through express-session. The gateway mostly performs point lookups,
// but the full store contract is implemented for the admin tooling.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg *config.Config) (*PostgresStore, error) {
	db, err := setupPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func setupPostgresDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.SessionsConfig.DSN)
	if err != nil {
		return nil, err
	}
	query := `CREATE TABLE IF NOT EXISTS sessions (
sid TEXT PRIMARY KEY,
session TEXT NOT NULL,
expires_at TIMESTAMP WITH TIME ZONE
);`
	_, err = db.Exec(query)
	if err != nil {
		return nil, err
	}
	query = `CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at);`
	_, err = db.Exec(query)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (s *PostgresStore) Get(sid string) (*types.Session, error) {
	sess := types.Session{SID: sid}
	var expiresAt sql.NullTime
	query := `SELECT session, expires_at FROM sessions WHERE sid = $1;`
	err := s.db.QueryRow(query, sid).Scan(&sess.Data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		sess.ExpiresAt = expiresAt.Time
	}
	if sess.Expired(time.Now()) {
		return nil, nil
	}
	return &sess, nil
}

func (s *PostgresStore) Set(sess *types.Session) error {
	query := `INSERT INTO sessions (sid, session, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (sid) DO UPDATE SET session = EXCLUDED.session, expires_at = EXCLUDED.expires_at;`
	_, err := s.db.Exec(query, sess.SID, sess.Data, nullableTime(sess.ExpiresAt))
	return err
}

// Touch refreshes the expiry without changing the record.
func (s *PostgresStore) Touch(sess *types.Session) error {
	query := `UPDATE sessions SET expires_at = $1 WHERE sid = $2;`
	_, err := s.db.Exec(query, nullableTime(sess.ExpiresAt), sess.SID)
	return err
}

func (s *PostgresStore) Destroy(sid string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE sid = $1;`, sid)
	return err
}

func (s *PostgresStore) All() ([]*types.Session, error) {
	rows, err := s.db.Query(`SELECT sid, session, expires_at FROM sessions;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make([]*types.Session, 0)
	for rows.Next() {
		sess := types.Session{}
		var expiresAt sql.NullTime
		if err := rows.Scan(&sess.SID, &sess.Data, &expiresAt); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			sess.ExpiresAt = expiresAt.Time
		}
		res = append(res, &sess)
	}
	return res, rows.Err()
}

func (s *PostgresStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions;`).Scan(&count)
	return count, err
}

func (s *PostgresStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM sessions;`)
	return err
}

func (s *PostgresStore) DeleteExpired() (int, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at < now();`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
