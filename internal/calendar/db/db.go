// Package db is the storage layer for users and events. It owns the schema
// invariants: case-insensitive username uniqueness, system-assigned event
// ids and transactional writes. Constraint violations are translated into
// the typed errors from internal/utils before they leave this package.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/uptrace/bun"

	"ms-calendar/internal/models"
	"ms-calendar/internal/utils"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- USERS ----------------

// CreateUser inserts a new user. The duplicate check and the insert run in
// one transaction so two concurrent creates of the same name cannot both
// succeed; the COLLATE NOCASE primary key backs this up at the schema level.
func (d *DB) CreateUser(ctx context.Context, user models.User) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("username = ?", user.Username).
			Exists(ctx)
		if err != nil {
			return storageError(err)
		}
		if exists {
			return utils.ErrAlreadyExists
		}

		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return utils.ErrAlreadyExists
			}
			return storageError(err)
		}
		return nil
	})
}

// GetUserByUsername fetches one user. The lookup is case-insensitive because
// the username column carries COLLATE NOCASE.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, storageError(err)
	}
	return &user, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("username ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// ---------------- EVENTS ----------------

// CreateEvent inserts a new event and fills in the id assigned by the
// database.
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	if _, err := d.Bun.NewInsert().Model(event).Exec(ctx); err != nil {
		return storageError(err)
	}
	return nil
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, storageError(err)
	}
	return &event, nil
}

// UpdateEvent writes the mutable columns of an event as a single
// transaction, so concurrent updates to the same row never interleave
// partial writes.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&event).
			Column("title", "description", "color", "start_date", "end_date",
				"location_lng", "location_lat", "location_name", "edited_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return storageError(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return storageError(err)
		}
		if affected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}

func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return storageError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageError(err)
	}
	if affected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// ListEvents returns events ordered by ascending start date. A non-nil
// window keeps only events overlapping [From, To].
func (d *DB) ListEvents(ctx context.Context, win *models.TimeWindow) ([]models.Event, error) {
	var events []models.Event
	err := d.eventsQuery(&events, win).Scan(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return events, nil
}

// Events returns the same rows as ListEvents as a lazy row-cursor sequence.
// Each call re-runs the query, so the sequence is restartable and reflects
// writes committed in between.
func (d *DB) Events(ctx context.Context, win *models.TimeWindow) iter.Seq2[models.Event, error] {
	return func(yield func(models.Event, error) bool) {
		rows, err := d.eventsQuery((*models.Event)(nil), win).Rows(ctx)
		if err != nil {
			yield(models.Event{}, storageError(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var event models.Event
			if err := d.Bun.ScanRow(ctx, rows, &event); err != nil {
				yield(models.Event{}, storageError(err))
				return
			}
			if !yield(event, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Event{}, storageError(err))
		}
	}
}

func (d *DB) eventsQuery(model interface{}, win *models.TimeWindow) *bun.SelectQuery {
	q := d.Bun.NewSelect().
		Model(model).
		Order("start_date ASC", "id ASC")
	if win != nil {
		q = q.Where("start_date <= ?", win.To).
			Where("end_date >= ?", win.From)
	}
	return q
}

// ---------------- ERROR TRANSLATION ----------------

func storageError(err error) error {
	return fmt.Errorf("%w: %v", utils.ErrStorage, err)
}

// isUniqueViolation recognises SQLite unique/primary key constraint errors
// without depending on driver-specific error types (sqliteshim may back the
// connection with either modernc or mattn sqlite).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: users.username")
}
