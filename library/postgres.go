// SPDX-License-Identifier: EPL-2.0

package library

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

const schema = `CREATE TABLE IF NOT EXISTS media_items (
	id               uuid PRIMARY KEY,
	archive_locator  text NOT NULL,
	created_at       timestamptz NOT NULL DEFAULT now(),
	updated_at       timestamptz NOT NULL DEFAULT now()
)`

// DB is the slice of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres stores items in the media_items table. Observers see changes
// made through this value; writes from other processes show up on the next
// local change.
type Postgres struct {
	db DB

	mu  sync.Mutex
	hub hub
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// Connect opens a pool for dsn, checks it and creates the table.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, *Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, errors.Wrapf(err, "ping postgres")
	}

	p := NewPostgres(pool)
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, p, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return errors.Wrapf(err, "create media_items")
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, item Item) error {
	if err := item.validate(); err != nil {
		return err
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.db.Exec(ctx,
		`INSERT INTO media_items (id, archive_locator, updated_at)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (id) DO UPDATE
		   SET archive_locator=EXCLUDED.archive_locator, updated_at=EXCLUDED.updated_at`,
		item.ID, item.ArchiveLocator, item.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert media item %v", item.ID)
	}

	items, err := p.list(ctx)
	if err != nil {
		// The write landed; observers catch up on the next change.
		logger.Wf(ctx, "library refresh after upsert %v err %+v", item.ID, err)
		return nil
	}
	p.hub.publish(items)

	return nil
}

// ObserveAll subscribes to the item list. If the initial load fails the
// subscription starts from an empty list.
func (p *Postgres) ObserveAll(ctx context.Context) <-chan []Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	items, err := p.list(ctx)
	if err != nil {
		logger.Ef(ctx, "library initial load err %+v", err)
	}
	return p.hub.subscribe(ctx, items)
}

// List returns every item, oldest first.
func (p *Postgres) List(ctx context.Context) ([]Item, error) {
	return p.list(ctx)
}

func (p *Postgres) list(ctx context.Context) ([]Item, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id::text, archive_locator, updated_at FROM media_items ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrapf(err, "query media items")
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ArchiveLocator, &it.UpdatedAt); err != nil {
			return nil, errors.Wrapf(err, "scan media item")
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate media items")
	}
	return out, nil
}
