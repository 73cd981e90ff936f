package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Registered drivers for the supported journal backends.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Entry is one applied transaction as recorded in the journal.
type Entry struct {
	Hash      string
	LedgerSeq uint32
	Account   string
	TxType    string
	Result    string
	RawTxn    string
	Meta      string
	CreatedAt time.Time
}

// Journal persists applied transactions in a relational database so
// they can be queried by hash or account after the fact. SQLite is the
// default backend; Postgres is selectable for shared deployments.
type Journal struct {
	db     *sql.DB
	driver string
}

// The all-TEXT/INTEGER schema is valid in both SQLite and Postgres.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	tx_hash    TEXT PRIMARY KEY,
	ledger_seq INTEGER NOT NULL,
	account    TEXT NOT NULL,
	tx_type    TEXT NOT NULL,
	result     TEXT NOT NULL,
	raw_txn    TEXT NOT NULL,
	meta       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account, ledger_seq);
`

// Open opens the journal and ensures its schema exists.
func Open(driver, dsn string) (*Journal, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Journal{db: db, driver: driver}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores an applied transaction. Re-recording the same hash
// overwrites the previous row.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	query := j.rebind(`INSERT INTO transactions
		(tx_hash, ledger_seq, account, tx_type, result, raw_txn, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tx_hash) DO UPDATE SET
		ledger_seq = EXCLUDED.ledger_seq,
		result = EXCLUDED.result,
		meta = EXCLUDED.meta`)

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, query,
		e.Hash, e.LedgerSeq, e.Account, e.TxType, e.Result, e.RawTxn, e.Meta, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// ByHash returns the journal entry for a transaction hash, or nil when
// the hash was never recorded.
func (j *Journal) ByHash(ctx context.Context, hash string) (*Entry, error) {
	query := j.rebind(`SELECT tx_hash, ledger_seq, account, tx_type, result, raw_txn, meta, created_at
		FROM transactions WHERE tx_hash = ?`)

	e, err := scanEntry(j.db.QueryRowContext(ctx, query, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return e, nil
}

// ByAccount returns an account's entries, most recent first.
func (j *Journal) ByAccount(ctx context.Context, account string, limit int) ([]Entry, error) {
	query := j.rebind(`SELECT tx_hash, ledger_seq, account, tx_type, result, raw_txn, meta, created_at
		FROM transactions WHERE account = ?
		ORDER BY ledger_seq DESC, created_at DESC LIMIT ?`)

	return j.queryEntries(ctx, query, account, limit)
}

// Recent returns the latest entries across all accounts.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := j.rebind(`SELECT tx_hash, ledger_seq, account, tx_type, result, raw_txn, meta, created_at
		FROM transactions
		ORDER BY ledger_seq DESC, created_at DESC LIMIT ?`)

	return j.queryEntries(ctx, query, limit)
}

// Count returns the number of recorded transactions.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (j *Journal) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var createdAt int64
	if err := row.Scan(&e.Hash, &e.LedgerSeq, &e.Account, &e.TxType, &e.Result, &e.RawTxn, &e.Meta, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &e, nil
}

// rebind converts ? placeholders to the $n form Postgres requires.
func (j *Journal) rebind(query string) string {
	if j.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
