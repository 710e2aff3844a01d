// Package sqlite provides a Store backed by SQLite via database/sql and
// the modernc.org/sqlite driver. Amounts are stored as base-unit decimal
// strings so no precision is lost; timestamps are stored as RFC 3339 text
// in UTC.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	ledger "github.com/mintworks/ledger"
	"github.com/mintworks/ledger/id"
	"github.com/mintworks/ledger/journal"
	"github.com/mintworks/ledger/lottery"
	"github.com/mintworks/ledger/staking"
	ledgerstore "github.com/mintworks/ledger/store"
	"github.com/mintworks/ledger/token"
	"github.com/mintworks/ledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: open %s: %w", path, err)
	}
	// SQLite allows a single writer; funnel everything through one
	// connection so transactions never hit SQLITE_BUSY from our own pool.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger/sqlite: %s: %w", pragma, err)
		}
	}
	return &Store{db: db}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ledger/sqlite: migration failed: %w", errors.Join(ledger.ErrMigrationFailed, err))
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx so reads share one
// implementation inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, addr types.Address) (*token.Account, error) {
	return getAccount(ctx, s.db, addr)
}

func (s *Store) TotalSupply(ctx context.Context) (types.Amount, error) {
	return getGlobalAmount(ctx, s.db, keyTotalSupply)
}

func (s *Store) BaseReserve(ctx context.Context) (types.Amount, error) {
	return getGlobalAmount(ctx, s.db, keyBaseReserve)
}

func getAccount(ctx context.Context, q querier, addr types.Address) (*token.Account, error) {
	acct := token.NewAccount(addr)
	err := q.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE address = ?`, string(addr),
	).Scan(&acct.Balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT operator, kind FROM operators WHERE holder = ?`, string(addr))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var operator, kind string
		if err := rows.Scan(&operator, &kind); err != nil {
			return nil, err
		}
		switch kind {
		case operatorGranted:
			acct.Authorized[types.Address(operator)] = struct{}{}
		case operatorRevokedDefault:
			acct.RevokedDefaults[types.Address(operator)] = struct{}{}
		}
	}
	return acct, rows.Err()
}

func putAccount(ctx context.Context, q querier, acct *token.Account) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (address, balance) VALUES (?, ?)
		 ON CONFLICT(address) DO UPDATE SET balance = excluded.balance`,
		string(acct.Address), acct.Balance)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM operators WHERE holder = ?`, string(acct.Address)); err != nil {
		return err
	}
	for operator := range acct.Authorized {
		if err := insertOperator(ctx, q, acct.Address, operator, operatorGranted); err != nil {
			return err
		}
	}
	for operator := range acct.RevokedDefaults {
		if err := insertOperator(ctx, q, acct.Address, operator, operatorRevokedDefault); err != nil {
			return err
		}
	}
	return nil
}

func insertOperator(ctx context.Context, q querier, holder, operator types.Address, kind string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO operators (holder, operator, kind) VALUES (?, ?, ?)`,
		string(holder), string(operator), kind)
	return err
}

// ==================== Staking Store ====================

func (s *Store) GetStake(ctx context.Context, stakeID uint64) (*staking.Stake, error) {
	return getStake(ctx, s.db, stakeID)
}

func (s *Store) ListStakeIDs(ctx context.Context, owner types.Address) ([]uint64, error) {
	return listStakeIDs(ctx, s.db, owner)
}

func (s *Store) ActiveStakeTotal(ctx context.Context) (types.Amount, error) {
	return getGlobalAmount(ctx, s.db, keyActiveStakeTotal)
}

func getStake(ctx context.Context, q querier, stakeID uint64) (*staking.Stake, error) {
	var (
		st        staking.Stake
		createdAt string
		withdrawn sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, owner, principal, created_at, withdrawn_at FROM stakes WHERE id = ?`,
		stakeID,
	).Scan(&st.ID, (*string)(&st.Owner), &st.Principal, &createdAt, &withdrawn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrStakeNotFound
	}
	if err != nil {
		return nil, err
	}
	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if withdrawn.Valid {
		if st.WithdrawnAt, err = parseTime(withdrawn.String); err != nil {
			return nil, err
		}
	}
	return &st, nil
}

func putStake(ctx context.Context, q querier, st *staking.Stake) error {
	var withdrawn any
	if st.Withdrawn() {
		withdrawn = formatTime(st.WithdrawnAt)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO stakes (id, owner, principal, created_at, withdrawn_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET withdrawn_at = excluded.withdrawn_at`,
		st.ID, string(st.Owner), st.Principal, formatTime(st.CreatedAt), withdrawn)
	return err
}

func listStakeIDs(ctx context.Context, q querier, owner types.Address) ([]uint64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM stakes WHERE owner = ? ORDER BY id ASC`, string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ==================== Lottery Store ====================

func (s *Store) CurrentRound(ctx context.Context) (uint64, error) {
	return getGlobalUint(ctx, s.db, keyCurrentRound)
}

func (s *Store) GetRound(ctx context.Context, roundID uint64) (*lottery.Round, error) {
	return getRound(ctx, s.db, roundID)
}

func (s *Store) TicketCount(ctx context.Context, roundID uint64, holder types.Address) (uint64, error) {
	return getTickets(ctx, s.db, roundID, holder)
}

func (s *Store) ListTickets(ctx context.Context, roundID uint64) ([]lottery.TicketEntry, error) {
	return listTickets(ctx, s.db, roundID)
}

func getRound(ctx context.Context, q querier, roundID uint64) (*lottery.Round, error) {
	var (
		r      lottery.Round
		winner sql.NullString
		closed sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, pot, winner, closed_at FROM rounds WHERE id = ?`, roundID,
	).Scan(&r.ID, &r.Pot, &winner, &closed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Winner = types.Address(winner.String)
	if closed.Valid {
		if r.ClosedAt, err = parseTime(closed.String); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func putRound(ctx context.Context, q querier, r *lottery.Round) error {
	var winner, closed any
	if r.Winner != "" {
		winner = string(r.Winner)
	}
	if r.Closed() {
		closed = formatTime(r.ClosedAt)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO rounds (id, pot, winner, closed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   pot = excluded.pot, winner = excluded.winner, closed_at = excluded.closed_at`,
		r.ID, r.Pot, winner, closed)
	return err
}

func getTickets(ctx context.Context, q querier, roundID uint64, holder types.Address) (uint64, error) {
	var count uint64
	err := q.QueryRowContext(ctx,
		`SELECT count FROM tickets WHERE round_id = ? AND holder = ?`,
		roundID, string(holder),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

func addTickets(ctx context.Context, q querier, roundID uint64, holder types.Address, count uint64) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO tickets (round_id, holder, count) VALUES (?, ?, ?)
		 ON CONFLICT(round_id, holder) DO UPDATE SET count = count + excluded.count`,
		roundID, string(holder), count)
	return err
}

func listTickets(ctx context.Context, q querier, roundID uint64) ([]lottery.TicketEntry, error) {
	// rowid preserves first-purchase order, which draws depend on.
	rows, err := q.QueryContext(ctx,
		`SELECT holder, count FROM tickets WHERE round_id = ? ORDER BY rowid ASC`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]lottery.TicketEntry, 0)
	for rows.Next() {
		var e lottery.TicketEntry
		if err := rows.Scan((*string)(&e.Holder), &e.Count); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ==================== Journal Store ====================

func (s *Store) AppendJournal(ctx context.Context, entries []*journal.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := appendJournalEntry(ctx, tx, e); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func appendJournalEntry(ctx context.Context, q querier, e *journal.Entry) error {
	var stakeID, roundID any
	if e.StakeID != 0 {
		stakeID = e.StakeID
	}
	if e.RoundID != 0 {
		roundID = e.RoundID
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO journal (id, kind, from_addr, to_addr, operator, amount, stake_id, round_id, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), string(e.Kind), nullableAddr(e.From), nullableAddr(e.To),
		nullableAddr(e.Operator), e.Amount, stakeID, roundID, formatTime(e.At))
	return err
}

func (s *Store) QueryJournal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	query := `SELECT id, kind, from_addr, to_addr, operator, amount, stake_id, round_id, at
		 FROM journal WHERE 1=1`
	args := make([]any, 0, 4)
	if opts.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(opts.Kind))
	}
	if opts.Account != "" {
		query += ` AND (from_addr = ? OR to_addr = ?)`
		args = append(args, string(opts.Account), string(opts.Account))
	}
	if !opts.Since.IsZero() {
		query += ` AND at >= ?`
		args = append(args, formatTime(opts.Since))
	}
	if !opts.Until.IsZero() {
		query += ` AND at <= ?`
		args = append(args, formatTime(opts.Until))
	}
	query += ` ORDER BY rowid ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*journal.Entry, 0)
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanJournalEntry(rows *sql.Rows) (*journal.Entry, error) {
	var (
		rawID, kind, at  string
		from, to, op     sql.NullString
		amount           types.Amount
		stakeID, roundID sql.NullInt64
	)
	if err := rows.Scan(&rawID, &kind, &from, &to, &op, &amount, &stakeID, &roundID, &at); err != nil {
		return nil, err
	}

	e := &journal.Entry{
		Kind:     journal.Kind(kind),
		From:     types.Address(from.String),
		To:       types.Address(to.String),
		Operator: types.Address(op.String),
		Amount:   amount,
	}
	var err error
	if e.ID, err = id.ParseJournalID(rawID); err != nil {
		return nil, err
	}
	if stakeID.Valid {
		e.StakeID = uint64(stakeID.Int64)
	}
	if roundID.Valid {
		e.RoundID = uint64(roundID.Int64)
	}
	if e.At, err = parseTime(at); err != nil {
		return nil, err
	}
	return e, nil
}

// ==================== Transactions ====================

func (s *Store) Begin(ctx context.Context) (ledgerstore.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: begin: %w", err)
	}
	return &tx{ctx: ctx, tx: sqlTx}, nil
}

// ==================== Helpers ====================

const (
	keyTotalSupply      = "total_supply"
	keyBaseReserve      = "base_reserve"
	keyActiveStakeTotal = "active_stake_total"
	keyCurrentRound     = "current_round"
	keyNextStakeID      = "next_stake_id"

	operatorGranted        = "granted"
	operatorRevokedDefault = "revoked_default"
)

func getGlobalAmount(ctx context.Context, q querier, key string) (types.Amount, error) {
	var v types.Amount
	err := q.QueryRowContext(ctx,
		`SELECT value FROM globals WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Amount{}, nil
	}
	return v, err
}

func getGlobalUint(ctx context.Context, q querier, key string) (uint64, error) {
	var v uint64
	err := q.QueryRowContext(ctx,
		`SELECT value FROM globals WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

func setGlobal(ctx context.Context, q querier, key string, value any) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO globals (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

func nullableAddr(a types.Address) any {
	if a == "" {
		return nil
	}
	return string(a)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ledger/sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
