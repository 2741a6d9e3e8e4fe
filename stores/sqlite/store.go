package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"marketmaster/core"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS designs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	subcategory TEXT,
	content TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	thumbnail TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);`,
	`CREATE INDEX IF NOT EXISTS designs_category ON designs (category, subcategory);`,
	`
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	subcategories TEXT NOT NULL
);`,
}

// NewStore opens (or creates) a SQLite database and prepares its tables.
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &sqliteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

const designColumns = "id, name, category, subcategory, content, width, height, thumbnail, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDesign(row rowScanner) (*core.Design, error) {
	var (
		d                      core.Design
		subcategory, thumbnail sql.NullString
		content                string
		createdAt, updatedAt   int64
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Category, &subcategory, &content, &d.Width, &d.Height, &thumbnail, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &d.Content); err != nil {
		return nil, fmt.Errorf("decode content of design %d: %w", d.ID, err)
	}
	if subcategory.Valid {
		d.Subcategory = &subcategory.String
	}
	if thumbnail.Valid {
		d.Thumbnail = &thumbnail.String
	}
	d.CreatedAt = time.Unix(0, createdAt).UTC()
	d.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &d, nil
}

func (s *sqliteStore) queryDesigns(ctx context.Context, where string, args ...any) ([]*core.Design, error) {
	query := "SELECT " + designColumns + " FROM designs"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	designs := []*core.Design{}
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	return designs, rows.Err()
}

// DesignStore implementation
func (s *sqliteStore) ListDesigns(ctx context.Context) ([]*core.Design, error) {
	return s.queryDesigns(ctx, "")
}

func (s *sqliteStore) DesignsByCategory(ctx context.Context, category string) ([]*core.Design, error) {
	return s.queryDesigns(ctx, "category = ?", category)
}

func (s *sqliteStore) DesignsBySubcategory(ctx context.Context, category, subcategory string) ([]*core.Design, error) {
	if subcategory == "" || subcategory == core.SubcategoryAll {
		return s.DesignsByCategory(ctx, category)
	}
	return s.queryDesigns(ctx, "category = ? AND subcategory = ?", category, subcategory)
}

func (s *sqliteStore) GetDesign(ctx context.Context, id int) (*core.Design, error) {
	log := logrus.WithField("design_id", id)
	log.Debug("Retrieving design by ID")

	row := s.db.QueryRowContext(ctx, "SELECT "+designColumns+" FROM designs WHERE id = ?", id)
	d, err := scanDesign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("design with id %d: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve design")
		return nil, err
	}
	return d, nil
}

func (s *sqliteStore) CreateDesign(ctx context.Context, design *core.NewDesign) (*core.Design, error) {
	d := design.Build(0, s.now())
	content, err := json.Marshal(d.Content)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO designs (name, category, subcategory, content, width, height, thumbnail, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		d.Name, d.Category, nullString(d.Subcategory), string(content), d.Width, d.Height, nullString(d.Thumbnail), d.CreatedAt.UnixNano(), d.UpdatedAt.UnixNano())
	if err != nil {
		logrus.WithError(err).Error("Failed to create design")
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	d.ID = int(id)

	logrus.WithFields(logrus.Fields{
		"design_id": d.ID,
		"category":  d.Category,
	}).Info("Design created successfully")
	return d, nil
}

func (s *sqliteStore) UpdateDesign(ctx context.Context, id int, patch *core.DesignPatch) (*core.Design, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // Rollback on any error

	existing, err := scanDesign(tx.QueryRowContext(ctx, "SELECT "+designColumns+" FROM designs WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("design with id %d: %w", id, core.ErrNotFound)
		}
		return nil, err
	}

	updated := patch.Apply(existing, s.now())
	content, err := json.Marshal(updated.Content)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE designs SET name = ?, category = ?, subcategory = ?, content = ?, width = ?, height = ?, thumbnail = ?, updated_at = ? WHERE id = ?",
		updated.Name, updated.Category, nullString(updated.Subcategory), string(content), updated.Width, updated.Height, nullString(updated.Thumbnail), updated.UpdatedAt.UnixNano(), id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *sqliteStore) DeleteDesign(ctx context.Context, id int) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM designs WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CategoryStore implementation
func (s *sqliteStore) ListCategories(ctx context.Context) ([]*core.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, subcategories FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *sqliteStore) GetCategory(ctx context.Context, name string) (*core.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, "SELECT id, name, subcategories FROM categories WHERE name = ?", name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", name, core.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (s *sqliteStore) CreateCategory(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	normalized, err := core.NormalizeSubcategories(subcategories)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO categories (name, subcategories) VALUES (?, ?)", name, string(encoded))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("category %s: %w", name, core.ErrAlreadyExists)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &core.Category{ID: int(id), Name: name, Subcategories: normalized}, nil
}

func (s *sqliteStore) UpdateCategory(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	normalized, err := core.NormalizeSubcategories(subcategories)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, "UPDATE categories SET subcategories = ? WHERE name = ?", string(encoded), name)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("category %s: %w", name, core.ErrNotFound)
	}
	return s.GetCategory(ctx, name)
}

func scanCategory(row rowScanner) (*core.Category, error) {
	var (
		c       core.Category
		encoded string
	)
	if err := row.Scan(&c.ID, &c.Name, &encoded); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(encoded), &c.Subcategories); err != nil {
		return nil, fmt.Errorf("decode subcategories of %s: %w", c.Name, err)
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
