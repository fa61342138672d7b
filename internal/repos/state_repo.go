package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionPrefix marks keys that belong to a visitor session and may expire.
const SessionPrefix = "session:"

// SessionKinds are the documents a session can hold, stored at
// session:<sid>:<kind>.
var SessionKinds = []string{"cart", "wishlist", "user", "checkout", "orders"}

// Fixed-width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// StateRepo keeps session state documents in the SQLite kv table.
type StateRepo struct {
	db  *sqlx.DB
	Now func() time.Time
}

func NewStateRepo(db *sqlx.DB) *StateRepo { return &StateRepo{db: db, Now: time.Now} }

func (r *StateRepo) stamp() string { return r.Now().UTC().Format(tsLayout) }

func (r *StateRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := r.db.GetContext(ctx, &v, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

const upsertKV = `
	INSERT INTO kv(key, value, updated_at) VALUES(?,?,?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (r *StateRepo) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, upsertKV, key, value, r.stamp())
	return err
}

func (r *StateRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return nil
}

// Commit applies every put and delete in one transaction.
func (r *StateRepo) Commit(ctx context.Context, puts map[string][]byte, deletes []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := r.stamp()
	for k, v := range puts {
		if _, err := tx.ExecContext(ctx, upsertKV, k, v, ts); err != nil {
			return err
		}
	}
	for _, k := range deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Keys lists stored keys with the given prefix in key order.
func (r *StateRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	return keysWithPrefix(ctx, r.db, prefix)
}

func keysWithPrefix(ctx context.Context, q sqlx.QueryerContext, prefix string) ([]string, error) {
	var out []string
	err := sqlx.SelectContext(ctx, q, &out, `SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	return out, err
}

// staleSessions lists the sids whose most recent write is older than the
// cutoff. A session key is session:<sid>:<kind>.
const staleSessions = `
	SELECT sid FROM (
		SELECT substr(rest, 1, instr(rest, ':') - 1) AS sid, updated_at
		FROM (SELECT substr(key, ?) AS rest, updated_at FROM kv WHERE substr(key, 1, ?) = ?)
		WHERE instr(rest, ':') > 1
	)
	GROUP BY sid
	HAVING MAX(updated_at) < ?
	ORDER BY sid`

// Prune drops every key of the sessions with no write since before cutoff
// and returns how many keys went. A session touched after cutoff keeps all
// of its keys, however old some of them are. Orders are never pruned.
func (r *StateRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var sids []string
	err = tx.SelectContext(ctx, &sids, staleSessions,
		len(SessionPrefix)+1, len(SessionPrefix), SessionPrefix, cutoff.UTC().Format(tsLayout))
	if err != nil {
		return 0, err
	}
	var n int64
	for _, sid := range sids {
		keys, err := keysWithPrefix(ctx, tx, SessionKeyPrefix(sid))
		if err != nil {
			return 0, err
		}
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
				return 0, err
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// SessionKeyPrefix is the prefix shared by every key of one session.
func SessionKeyPrefix(sid string) string { return SessionPrefix + sid + ":" }

// SessionOf returns the sid a session key belongs to.
func SessionOf(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, SessionPrefix)
	if !ok {
		return "", false
	}
	sid, _, ok := strings.Cut(rest, ":")
	return sid, ok && sid != ""
}

// IsSessionKey reports whether key is scoped to a visitor session.
func IsSessionKey(key string) bool { return strings.HasPrefix(key, SessionPrefix) }
