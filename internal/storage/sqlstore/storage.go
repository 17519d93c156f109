package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/chargedblocks/internal/dependencies/clock"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
)

// Storage is a relational implementation of the storage interface.
// Uniqueness and upserts are left to the database, so concurrent callers
// converge without application-level locking.
type Storage struct {
	db    *sql.DB
	cfg   Config
	clock clock.Clock
}

// New opens the database, verifies the connection and creates the schema
func New(ctx context.Context, cfg Config, clk clock.Clock) (*Storage, error) {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := initSchema(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Storage{db: db, cfg: cfg, clock: clk}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) q(query string) string {
	return rebind(s.cfg.Driver, query)
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func (s *Storage) now() string {
	return s.clock.Now().UTC().Format(time.RFC3339Nano)
}

// Binding operations

func (s *Storage) InsertBinding(ctx context.Context, b model.Binding) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO bindings (player_uuid, player_name, block_id, material, uses, max_uses, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_uuid, block_id) DO NOTHING
	`), b.Owner.String(), b.OwnerName, b.TokenID.String(), string(b.Kind), b.Uses, b.MaxUses, b.Hidden, now, now)
	if err != nil {
		return fmt.Errorf("insert binding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert binding: %w", err)
	}
	if n == 0 {
		return model.ErrAlreadyBound
	}
	return nil
}

func (s *Storage) SaveBinding(ctx context.Context, b model.Binding) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO bindings (player_uuid, player_name, block_id, material, uses, max_uses, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_uuid, block_id) DO UPDATE SET
			player_name = CASE WHEN excluded.player_name = '' THEN bindings.player_name ELSE excluded.player_name END,
			material = excluded.material,
			uses = excluded.uses,
			max_uses = excluded.max_uses,
			hidden = excluded.hidden,
			updated_at = excluded.updated_at
	`), b.Owner.String(), b.OwnerName, b.TokenID.String(), string(b.Kind), b.Uses, b.MaxUses, b.Hidden, now, now)
	if err != nil {
		return fmt.Errorf("save binding: %w", err)
	}
	return nil
}

func (s *Storage) SyncBinding(ctx context.Context, b model.Binding) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO bindings (player_uuid, player_name, block_id, material, uses, max_uses, hidden, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_uuid, block_id) DO UPDATE SET
			player_name = CASE WHEN excluded.player_name = '' THEN bindings.player_name ELSE excluded.player_name END,
			material = excluded.material,
			uses = excluded.uses,
			max_uses = excluded.max_uses,
			updated_at = excluded.updated_at
	`), b.Owner.String(), b.OwnerName, b.TokenID.String(), string(b.Kind), b.Uses, b.MaxUses, b.Hidden, now, now)
	if err != nil {
		return fmt.Errorf("sync binding: %w", err)
	}
	return nil
}

func (s *Storage) GetBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) (model.Binding, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b := model.Binding{Owner: owner, TokenID: id}
	var kind string
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT player_name, material, uses, max_uses, hidden
		FROM bindings
		WHERE player_uuid = ? AND block_id = ?
	`), owner.String(), id.String()).Scan(&b.OwnerName, &kind, &b.Uses, &b.MaxUses, &b.Hidden)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Binding{}, model.ErrBindingNotFound
	}
	if err != nil {
		return model.Binding{}, fmt.Errorf("get binding: %w", err)
	}
	b.Kind = model.Kind(kind)
	return b, nil
}

func (s *Storage) ListBindings(ctx context.Context, owner model.PlayerID) ([]model.Binding, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT block_id, player_name, material, uses, max_uses, hidden
		FROM bindings
		WHERE player_uuid = ?
	`), owner.String())
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Binding, 0)
	for rows.Next() {
		var (
			rawID, kind string
			b           = model.Binding{Owner: owner}
		)
		if err := rows.Scan(&rawID, &b.OwnerName, &kind, &b.Uses, &b.MaxUses, &b.Hidden); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		b.TokenID = id
		b.Kind = model.Kind(kind)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	return out, nil
}

func (s *Storage) SetHidden(ctx context.Context, owner model.PlayerID, id model.TokenID, hidden bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE bindings SET hidden = ?, updated_at = ?
		WHERE player_uuid = ? AND block_id = ?
	`), hidden, s.now(), owner.String(), id.String())
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	if n == 0 {
		return model.ErrBindingNotFound
	}
	return nil
}

func (s *Storage) DeleteBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM bindings WHERE player_uuid = ? AND block_id = ?`),
		owner.String(), id.String())
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	return nil
}

func (s *Storage) DeleteBindingsByKind(ctx context.Context, owner model.PlayerID, kind model.Kind) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM bindings WHERE player_uuid = ? AND UPPER(TRIM(material)) = ?`),
		owner.String(), kind.Canonical())
	if err != nil {
		return 0, fmt.Errorf("delete bindings by kind: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete bindings by kind: %w", err)
	}
	return int(n), nil
}

func (s *Storage) DeleteOwner(ctx context.Context, owner model.PlayerID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM bindings WHERE player_uuid = ?`), owner.String()); err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	return nil
}

func (s *Storage) Owners(ctx context.Context) ([]model.PlayerID, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT player_uuid FROM bindings`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	out := make([]model.PlayerID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Favorite operations

func (s *Storage) AddFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO favorites (player_uuid, material, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (player_uuid, material) DO NOTHING
	`), owner.String(), string(kind), s.now())
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return n > 0, nil
}

func (s *Storage) RemoveFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM favorites WHERE player_uuid = ? AND material = ?`),
		owner.String(), string(kind))
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return n > 0, nil
}

func (s *Storage) IsFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM favorites WHERE player_uuid = ? AND material = ?`),
		owner.String(), string(kind)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is favorite: %w", err)
	}
	return true, nil
}

func (s *Storage) ListFavorites(ctx context.Context, owner model.PlayerID) ([]model.Kind, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT material FROM favorites WHERE player_uuid = ?`), owner.String())
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]model.Kind, 0)
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, model.Kind(kind))
	}
	return out, rows.Err()
}
