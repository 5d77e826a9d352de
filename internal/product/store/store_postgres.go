package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rolesync/internal/product/models"
	"rolesync/pkg/platform/sentinel"
)

// Postgres persists sync-link records in PostgreSQL. Duplicate-key races on
// (guild_id, registry_id) are resolved by the primary key: the later writer
// receives sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the sync_products table and name index if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS sync_products (
			guild_id          TEXT        NOT NULL,
			registry_id       TEXT        NOT NULL,
			display_name      TEXT        NOT NULL DEFAULT '',
			preview_image_url TEXT        NOT NULL DEFAULT '',
			short_url         TEXT        NOT NULL DEFAULT '',
			role_id           TEXT        NOT NULL,
			watch_message_id  TEXT        NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (guild_id, registry_id)
		);
		CREATE INDEX IF NOT EXISTS sync_products_guild_name_idx
			ON sync_products (guild_id, lower(display_name));
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure sync_products schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, p *models.Product) error {
	const query = `
		INSERT INTO sync_products
			(guild_id, registry_id, display_name, preview_image_url, short_url, role_id, watch_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.GuildID, p.RegistryID, p.DisplayName, p.PreviewImageURL, p.ShortURL, p.RoleID, p.WatchMessageID, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create sync product: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, p *models.Product) error {
	const query = `
		UPDATE sync_products
		SET display_name = $3, preview_image_url = $4, short_url = $5, role_id = $6, watch_message_id = $7
		WHERE guild_id = $1 AND registry_id = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		p.GuildID, p.RegistryID, p.DisplayName, p.PreviewImageURL, p.ShortURL, p.RoleID, p.WatchMessageID)
	if err != nil {
		return fmt.Errorf("update sync product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update sync product: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, guildID, registryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_products WHERE guild_id = $1 AND registry_id = $2`, guildID, registryID)
	if err != nil {
		return fmt.Errorf("delete sync product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sync product: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByGuildAndID(ctx context.Context, guildID, registryID string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE guild_id = $1 AND registry_id = $2`, guildID, registryID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find sync product by id: %w", err)
	}
	return p, nil
}

func (s *Postgres) FindByGuildAndName(ctx context.Context, guildID, name string) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE guild_id = $1 AND lower(display_name) = lower($2) ORDER BY created_at, registry_id`,
		guildID, name)
	if err != nil {
		return nil, fmt.Errorf("find sync products by name: %w", err)
	}
	return collectProducts(rows)
}

func (s *Postgres) ListByGuild(ctx context.Context, guildID string) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE guild_id = $1 ORDER BY created_at, registry_id`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list sync products: %w", err)
	}
	return collectProducts(rows)
}

const selectColumns = `
	SELECT guild_id, registry_id, display_name, preview_image_url, short_url, role_id, watch_message_id, created_at
	FROM sync_products`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.GuildID, &p.RegistryID, &p.DisplayName, &p.PreviewImageURL, &p.ShortURL,
		&p.RoleID, &p.WatchMessageID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]*models.Product, error) {
	defer rows.Close()
	var out []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync products: %w", err)
	}
	return out, nil
}
