package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPerPage = 25
	MaxPerPage     = 100
)

// Query selects a page of rows.
type Query struct {
	Page    int
	PerPage int
	Search  string
	// OwnerID, when non-zero, keeps only rows owned by that user.
	OwnerID uint
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// Pages returns the number of pages in the listing.
func (p Page[T]) Pages() int {
	if p.PerPage == 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// OwnerScope narrows a query to rows owned by userID.
type OwnerScope func(db *gorm.DB, userID uint) *gorm.DB

// OwnedByStudentAccount keeps rows whose own user_id or parent_user_id matches.
func OwnedByStudentAccount(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("user_id = ? OR parent_user_id = ?", userID, userID)
}

// OwnedViaStudent keeps rows whose student_id belongs to the user or their child.
func OwnedViaStudent(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where(
		"student_id IN (SELECT id FROM students WHERE deleted_at IS NULL AND (user_id = ? OR parent_user_id = ?))",
		userID, userID,
	)
}

// TableOptions configures a Table.
type TableOptions struct {
	Preload []string
	// Search lists the text columns matched by Query.Search.
	Search []string
	Order  string
	Owner  OwnerScope
}

// Table gives list and CRUD access to one model.
type Table[T any] struct {
	db   *gorm.DB
	opts TableOptions
}

// NewTable creates a table accessor. Order defaults to "id DESC".
func NewTable[T any](db *gorm.DB, opts TableOptions) *Table[T] {
	if opts.Order == "" {
		opts.Order = "id DESC"
	}
	return &Table[T]{db: db, opts: opts}
}

// Scoped reports whether the table can filter rows by owner.
func (t *Table[T]) Scoped() bool { return t.opts.Owner != nil }

func (t *Table[T]) preload(db *gorm.DB) *gorm.DB {
	for _, rel := range t.opts.Preload {
		db = db.Preload(rel)
	}
	return db
}

// List returns one page of rows matching q.
func (t *Table[T]) List(ctx context.Context, q Query) (Page[T], error) {
	q = q.normalized()
	db := t.db.WithContext(ctx).Model(new(T))
	if q.OwnerID != 0 {
		if t.opts.Owner == nil {
			return Page[T]{}, fmt.Errorf("owner filter on unscoped table")
		}
		db = t.opts.Owner(db, q.OwnerID)
	}
	if q.Search != "" && len(t.opts.Search) > 0 {
		like := "%" + strings.ToLower(q.Search) + "%"
		clauses := make([]string, len(t.opts.Search))
		args := make([]any, len(t.opts.Search))
		for i, col := range t.opts.Search {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		db = db.Where(strings.Join(clauses, " OR "), args...)
	}
	db = db.Session(&gorm.Session{})

	page := Page[T]{Page: q.Page, PerPage: q.PerPage}
	if err := db.Count(&page.Total).Error; err != nil {
		return Page[T]{}, fmt.Errorf("count: %w", err)
	}
	err := t.preload(db).Order(t.opts.Order).
		Limit(q.PerPage).
		Offset((q.Page - 1) * q.PerPage).
		Find(&page.Items).Error
	if err != nil {
		return Page[T]{}, fmt.Errorf("list: %w", err)
	}
	return page, nil
}

// Get returns the row with id or ErrNotFound.
func (t *Table[T]) Get(ctx context.Context, id uint) (*T, error) {
	row := new(T)
	if err := t.preload(t.db.WithContext(ctx)).First(row, id).Error; err != nil {
		return nil, translate(err)
	}
	return row, nil
}

// Create inserts row. Unique violations yield ErrConflict.
func (t *Table[T]) Create(ctx context.Context, row *T) error {
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error)
}

// Update overwrites the row with id with every field of row, zero values
// included. The primary key and timestamps of creation are kept.
func (t *Table[T]) Update(ctx context.Context, id uint, row *T) error {
	res := t.db.WithContext(ctx).Model(new(T)).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at", "deleted_at", clause.Associations).
		Updates(row)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the row with id.
func (t *Table[T]) Delete(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
