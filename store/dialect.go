package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	name   string
	schema []string

	// numbered placeholders ($1, $2) instead of ?
	numbered bool

	isUniqueViolation func(error) bool
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
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

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    url           TEXT NOT NULL UNIQUE,
    title         TEXT NOT NULL,
    current_price INTEGER NOT NULL,
    target_price  INTEGER,
    image_url     TEXT,
    platform      TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS price_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    price      INTEGER NOT NULL,
    scraped_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history(product_id, scraped_at)`,
	},
	isUniqueViolation: func(err error) bool {
		var se sqlite3.Error
		return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
	},
}

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
    id            BIGSERIAL PRIMARY KEY,
    url           TEXT NOT NULL UNIQUE,
    title         TEXT NOT NULL,
    current_price BIGINT NOT NULL,
    target_price  BIGINT,
    image_url     TEXT,
    platform      TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS price_history (
    id         BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    price      BIGINT NOT NULL,
    scraped_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history(product_id, scraped_at)`,
	},
	isUniqueViolation: func(err error) bool {
		var pe *pq.Error
		return errors.As(err, &pe) && pe.Code == "23505"
	},
}
