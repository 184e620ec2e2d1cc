package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLClient wraps direct SQL access for the delivery queues, invocation
// logs, and trigger configuration.
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient wires a sql.DB; pass a configured instance from main.
func NewMySQLClient(db *sql.DB) *MySQLClient {
	return &MySQLClient{db: db}
}

// Close releases the underlying connection pool.
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// Connect opens and pings a MySQL connection with pool settings tuned for
// the engine's concurrent lease/transition transactions.
func Connect(databaseURL string) (*sql.DB, error) {
	// Timestamps must scan into time.Time in UTC.
	dsn := databaseURL
	if !strings.Contains(dsn, "parseTime") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true&loc=UTC"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(60 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
