package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/pricewatch/models"
)

// sqliteParams enables WAL, foreign keys and a busy timeout.
const sqliteParams = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	// now is swapped in tests.
	now func() time.Time
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?" + sqliteParams
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return newSQLStore(ctx, db, sqliteDialect)
}

// OpenPostgres connects to the Postgres database described by dsn.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return newSQLStore(ctx, db, postgresDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("store ready", "driver", d.name)
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

const itemColumns = `id, url, title, current_price, target_price, image_url, platform, created_at, updated_at`

func (s *SQLStore) Create(ctx context.Context, item NewItem) (models.TrackedItem, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.TrackedItem{}, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, s.dialect.rebind(`
INSERT INTO products (url, title, current_price, target_price, image_url, platform, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
		item.URL, item.Title, item.Price, nullInt(item.TargetPrice), nullString(item.ImageURL),
		string(item.Platform), now, now,
	).Scan(&id)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return models.TrackedItem{}, ErrDuplicate
		}
		return models.TrackedItem{}, fmt.Errorf("insert product: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO price_history (product_id, price, scraped_at) VALUES (?, ?, ?)`),
		id, item.Price, now,
	); err != nil {
		return models.TrackedItem{}, fmt.Errorf("insert history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.TrackedItem{}, fmt.Errorf("commit create: %w", err)
	}

	return models.TrackedItem{
		ID:           id,
		URL:          item.URL,
		Title:        item.Title,
		CurrentPrice: item.Price,
		TargetPrice:  item.TargetPrice,
		ImageURL:     item.ImageURL,
		Platform:     item.Platform,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *SQLStore) GetByURL(ctx context.Context, url string) (models.TrackedItem, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT `+itemColumns+` FROM products WHERE url = ?`), url)
	return scanItem(row)
}

func (s *SQLStore) Get(ctx context.Context, id int64) (models.TrackedItem, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT `+itemColumns+` FROM products WHERE id = ?`), id)
	return scanItem(row)
}

func (s *SQLStore) List(ctx context.Context) ([]models.TrackedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := []models.TrackedItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLStore) History(ctx context.Context, id int64) ([]models.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT price, scraped_at FROM price_history WHERE product_id = ? ORDER BY scraped_at DESC, id DESC`), id)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	points := []models.PricePoint{}
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Price, &p.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *SQLStore) RecordPrice(ctx context.Context, id int64, price int) error {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record price: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE products SET current_price = ?, updated_at = ? WHERE id = ?`), price, now, id)
	if err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO price_history (product_id, price, scraped_at) VALUES (?, ?, ?)`), id, price, now); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) UpdateTarget(ctx context.Context, id int64, target *int) (models.TrackedItem, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(
		`UPDATE products SET target_price = ?, updated_at = ? WHERE id = ?`), nullInt(target), s.now(), id)
	if err != nil {
		return models.TrackedItem{}, fmt.Errorf("update target: %w", err)
	}
	if err := requireRow(res); err != nil {
		return models.TrackedItem{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	// Explicit so it holds even where foreign keys are disabled.
	if _, err := tx.ExecContext(ctx, s.dialect.rebind(
		`DELETE FROM price_history WHERE product_id = ?`), id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.dialect.rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.TrackedItem, error) {
	var (
		item     models.TrackedItem
		target   sql.NullInt64
		image    sql.NullString
		platform string
	)
	err := row.Scan(&item.ID, &item.URL, &item.Title, &item.CurrentPrice,
		&target, &image, &platform, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TrackedItem{}, ErrNotFound
	}
	if err != nil {
		return models.TrackedItem{}, fmt.Errorf("scan product: %w", err)
	}
	if target.Valid {
		v := int(target.Int64)
		item.TargetPrice = &v
	}
	if image.Valid {
		v := image.String
		item.ImageURL = &v
	}
	item.Platform = models.Platform(platform)
	return item, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
