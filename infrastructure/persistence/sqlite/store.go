// Package sqlite persists cats, accounts and the interaction log in a single
// SQLite file. It is the durable driver for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"catnook-backend/application/ports"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/infrastructure/persistence/sqlite/migrations"
	pkgerrors "catnook-backend/pkg/errors"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store owns the database handle and hands out the three repositories
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; database/sql queues the rest
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping backs the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Cats() ports.CatRepository { return &CatRepository{db: s.db} }
func (s *Store) Accounts() ports.AccountRepository { return &AccountRepository{db: s.db} }
func (s *Store) Interactions() ports.InteractionRepository { return &InteractionRepository{db: s.db} }

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CatRepository implements ports.CatRepository
type CatRepository struct{ db *sql.DB }

const catColumns = `id, name, skin, personality, avatar, mood, patience, last_feed_at,
       death_flag, is_alive, owner_id, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCat(row rowScanner) (*entities.Cat, error) {
	var (
		s        entities.CatSnapshot
		id       int64
		lastFeed sql.NullInt64
		owner    sql.NullInt64
		alive    int64
		created  int64
		updated  int64
	)
	if err := row.Scan(&id, &s.Name, &s.Skin, &s.Personality, &s.Avatar, &s.Mood, &s.Patience,
		&lastFeed, &s.DeathFlag, &alive, &owner, &s.Version, &created, &updated); err != nil {
		return nil, err
	}
	s.ID = valueobjects.CatID(id)
	s.LastFeedDate = timePtr(lastFeed)
	s.IsAlive = alive == 1
	if owner.Valid {
		o := valueobjects.UserID(owner.Int64)
		s.OwnerID = &o
	}
	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(updated)
	return entities.ReconstructCat(s), nil
}

func ownerArg(o *valueobjects.UserID) sql.NullInt64 {
	if o == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*o), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *CatRepository) Create(ctx context.Context, cat *entities.Cat) error {
	s := cat.Snapshot()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cats (name, skin, personality, avatar, mood, patience, last_feed_at,
		                   death_flag, is_alive, owner_id, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Skin, s.Personality, s.Avatar, s.Mood, s.Patience, nullMillis(s.LastFeedDate),
		s.DeathFlag, boolInt(s.IsAlive), ownerArg(s.OwnerID), s.Version, toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("insert cat", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.NewDatabaseError("insert cat", err)
	}
	cat.AssignID(valueobjects.CatID(id))
	return nil
}

func (r *CatRepository) GetByID(ctx context.Context, id valueobjects.CatID) (*entities.Cat, error) {
	cat, err := scanCat(r.db.QueryRowContext(ctx, `SELECT `+catColumns+` FROM cats WHERE id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrCatNotFound.With("catId", int64(id))
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get cat", err)
	}
	return cat, nil
}

func (r *CatRepository) Save(ctx context.Context, cat *entities.Cat, expectedVersion int64) error {
	return saveCat(ctx, r.db, cat, expectedVersion)
}

func saveCat(ctx context.Context, db execer, cat *entities.Cat, expectedVersion int64) error {
	s := cat.Snapshot()
	res, err := db.ExecContext(ctx,
		`UPDATE cats
		    SET avatar = ?, mood = ?, patience = ?, last_feed_at = ?, death_flag = ?,
		        is_alive = ?, owner_id = ?, version = ?, updated_at = ?
		  WHERE id = ? AND version = ?`,
		s.Avatar, s.Mood, s.Patience, nullMillis(s.LastFeedDate), s.DeathFlag,
		boolInt(s.IsAlive), ownerArg(s.OwnerID), s.Version, toMillis(s.UpdatedAt),
		int64(s.ID), expectedVersion,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("update cat", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.NewDatabaseError("update cat", err)
	}
	if n == 1 {
		return nil
	}

	var actual int64
	err = db.QueryRowContext(ctx, `SELECT version FROM cats WHERE id = ?`, int64(s.ID)).Scan(&actual)
	if errors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrCatNotFound.With("catId", int64(s.ID))
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("update cat", err)
	}
	return pkgerrors.ErrConcurrentModification.
		With("catId", int64(s.ID)).
		WithDetail("expectedVersion", expectedVersion).
		WithDetail("actualVersion", actual)
}

func (r *CatRepository) ListAdoptable(ctx context.Context) ([]*entities.Cat, error) {
	return r.query(ctx, `SELECT `+catColumns+` FROM cats WHERE owner_id IS NULL AND is_alive = 1 ORDER BY id`)
}

func (r *CatRepository) ListByOwner(ctx context.Context, owner valueobjects.UserID) ([]*entities.Cat, error) {
	return r.query(ctx, `SELECT `+catColumns+` FROM cats WHERE owner_id = ? ORDER BY id`, int64(owner))
}

func (r *CatRepository) query(ctx context.Context, q string, args ...any) ([]*entities.Cat, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list cats", err)
	}
	defer rows.Close()

	out := make([]*entities.Cat, 0)
	for rows.Next() {
		cat, err := scanCat(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan cat", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list cats", err)
	}
	return out, nil
}

// AccountRepository implements ports.AccountRepository
type AccountRepository struct{ db *sql.DB }

const accountColumns = `id, username, email, role, bio, yarn, last_login_at, created_at`

func scanAccount(row rowScanner) (*entities.Account, error) {
	var (
		s       entities.AccountSnapshot
		id      int64
		last    sql.NullInt64
		created int64
	)
	if err := row.Scan(&id, &s.Username, &s.Email, &s.Role, &s.Bio, &s.Yarn, &last, &created); err != nil {
		return nil, err
	}
	s.ID = valueobjects.UserID(id)
	s.LastLoginDate = timePtr(last)
	s.CreatedAt = fromMillis(created)
	return entities.ReconstructAccount(s), nil
}

func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	s := account.Snapshot()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, role, bio, yarn, last_login_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Username, s.Email, s.Role, s.Bio, s.Yarn, nullMillis(s.LastLoginDate), toMillis(s.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.NewDomainError(pkgerrors.DomainConflictError, "USERNAME_TAKEN", "Username is already registered").
				WithDetail("username", s.Username)
		}
		return pkgerrors.NewDatabaseError("insert account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.NewDatabaseError("insert account", err)
	}
	account.AssignID(valueobjects.UserID(id))
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Account, error) {
	acct, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get account", err)
	}
	return acct, nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*entities.Account, error) {
	acct, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrUserNotFound.With("username", username)
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get account", err)
	}
	return acct, nil
}

func (r *AccountRepository) AdjustYarn(ctx context.Context, id valueobjects.UserID, delta int64, floor *int64) (int64, error) {
	return adjustYarn(ctx, r.db, id, delta, floor)
}

// adjustYarn is a single conditional increment; the floor check and the
// write happen in the same statement.
func adjustYarn(ctx context.Context, db execer, id valueobjects.UserID, delta int64, floor *int64) (int64, error) {
	var floorArg sql.NullInt64
	if floor != nil {
		floorArg = sql.NullInt64{Int64: *floor, Valid: true}
	}

	var balance int64
	err := db.QueryRowContext(ctx,
		`UPDATE accounts SET yarn = yarn + ?1
		  WHERE id = ?2 AND (?3 IS NULL OR yarn + ?1 >= ?3)
		  RETURNING yarn`,
		delta, int64(id), floorArg,
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, pkgerrors.NewDatabaseError("adjust yarn", err)
	}

	var current int64
	err = db.QueryRowContext(ctx, `SELECT yarn FROM accounts WHERE id = ?`, int64(id)).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("adjust yarn", err)
	}
	return current, pkgerrors.ErrInsufficientYarn.With("balance", current).WithDetail("required", -delta)
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id valueobjects.UserID, expectedPrevious *time.Time, at time.Time, bonus int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET last_login_at = ?, yarn = yarn + ?
		  WHERE id = ? AND last_login_at IS ?
		  RETURNING yarn`,
		toMillis(at), bonus, int64(id), nullMillis(expectedPrevious),
	).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, pkgerrors.NewDatabaseError("record login", err)
	}

	var current int64
	err = r.db.QueryRowContext(ctx, `SELECT yarn FROM accounts WHERE id = ?`, int64(id)).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("record login", err)
	}
	return current, pkgerrors.ErrConcurrentModification.With("userId", int64(id))
}

// InteractionRepository implements ports.InteractionRepository
type InteractionRepository struct{ db *sql.DB }

const interactionColumns = `id, kind, cost, interaction_at, cat_id, user_id, description`

func scanInteraction(row rowScanner) (*entities.Interaction, error) {
	var (
		s         entities.InteractionSnapshot
		id        int64
		kind      string
		at        int64
		cat, user int64
	)
	if err := row.Scan(&id, &kind, &s.Cost, &at, &cat, &user, &s.Description); err != nil {
		return nil, err
	}
	s.ID = valueobjects.InteractionID(id)
	s.Kind = valueobjects.InteractionKind(kind)
	s.Date = fromMillis(at)
	s.CatID = valueobjects.CatID(cat)
	s.UserID = valueobjects.UserID(user)
	return entities.ReconstructInteraction(s), nil
}

func (r *InteractionRepository) Record(ctx context.Context, entry ports.InteractionEntry) (balance int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("begin interaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = saveCat(ctx, tx, entry.Cat, entry.ExpectedCatVersion); err != nil {
		return 0, err
	}

	in := entry.Interaction.Snapshot()
	var floor *int64
	if !entry.AllowNegative {
		zero := int64(0)
		floor = &zero
	}
	if balance, err = adjustYarn(ctx, tx, in.UserID, -in.Cost, floor); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO interactions (kind, cost, interaction_at, cat_id, user_id, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Kind.String(), in.Cost, toMillis(in.Date), int64(in.CatID), int64(in.UserID), in.Description,
	)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("insert interaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("insert interaction", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, pkgerrors.NewDatabaseError("commit interaction", err)
	}

	entry.Interaction.AssignID(valueobjects.InteractionID(id))
	return balance, nil
}

func (r *InteractionRepository) LastN(ctx context.Context, cat valueobjects.CatID, user valueobjects.UserID, n int) ([]*entities.Interaction, error) {
	if n <= 0 {
		return []*entities.Interaction{}, nil
	}
	return r.query(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		  WHERE cat_id = ? AND user_id = ?
		  ORDER BY interaction_at DESC, id DESC
		  LIMIT ?`,
		int64(cat), int64(user), n)
}

func (r *InteractionRepository) List(ctx context.Context, filter ports.InteractionFilter) ([]*entities.Interaction, error) {
	q := `SELECT ` + interactionColumns + ` FROM interactions WHERE 1 = 1`
	var args []any
	if filter.CatID != 0 {
		q += ` AND cat_id = ?`
		args = append(args, int64(filter.CatID))
	}
	if filter.UserID != 0 {
		q += ` AND user_id = ?`
		args = append(args, int64(filter.UserID))
	}
	return r.query(ctx, q+` ORDER BY id`, args...)
}

func (r *InteractionRepository) GetByID(ctx context.Context, id valueobjects.InteractionID) (*entities.Interaction, error) {
	in, err := scanInteraction(r.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrInteractionNotFound.With("interactionId", int64(id))
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get interaction", err)
	}
	return in, nil
}

func (r *InteractionRepository) query(ctx context.Context, q string, args ...any) ([]*entities.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list interactions", err)
	}
	defer rows.Close()

	out := make([]*entities.Interaction, 0)
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan interaction", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list interactions", err)
	}
	return out, nil
}
