package audit

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MySQLOptions locates the audit database.
type MySQLOptions struct {
	Addr     string
	User     string
	Password string
	Database string
}

// DSN builds the driver connection string.
func (o MySQLOptions) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = o.Addr
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.DBName = o.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// OpenMySQL opens and pings a pooled connection to the audit database.
func OpenMySQL(ctx context.Context, o MySQLOptions) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, fmt.Errorf("audit: open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping mysql %s: %w", o.Addr, err)
	}
	return db, nil
}

// MySQLSink stores each record as one row in table and one row per donor in
// table_donors, inside a single transaction.
type MySQLSink struct {
	db    *sql.DB
	table string
}

// NewMySQLSink wraps an open database. table must be a plain identifier.
func NewMySQLSink(db *sql.DB, table string) (*MySQLSink, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("audit: invalid table name %q", table)
	}
	return &MySQLSink{db: db, table: table}, nil
}

// Schema returns the CREATE TABLE statements the sink writes to.
func (s *MySQLSink) Schema() []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS `" + s.table + "` (" +
			"request_id VARCHAR(36) NOT NULL PRIMARY KEY, " +
			"created_at DATETIME NOT NULL, " +
			"disaster_city VARCHAR(255) NOT NULL, " +
			"resources_needed INT NOT NULL, " +
			"unfulfilled INT NOT NULL, " +
			"status VARCHAR(64) NOT NULL)",
		"CREATE TABLE IF NOT EXISTS `" + s.table + "_donors` (" +
			"request_id VARCHAR(36) NOT NULL, " +
			"seq INT NOT NULL, " +
			"city VARCHAR(255) NOT NULL, " +
			"sent INT NOT NULL, " +
			"distance_km INT NOT NULL, " +
			"PRIMARY KEY (request_id, seq))",
	}
}

// EnsureSchema creates the audit tables if they are missing.
func (s *MySQLSink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("audit: create schema: %w", err)
		}
	}
	return nil
}

func (s *MySQLSink) Write(ctx context.Context, r *Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit: begin: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO `"+s.table+"` (request_id, created_at, disaster_city, resources_needed, unfulfilled, status) VALUES (?, ?, ?, ?, ?, ?)",
		r.RequestID, r.Timestamp.UTC(), r.DisasterCity, r.Needed, r.Unfulfilled, r.StatusText())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("audit: insert record %s: %w", r.RequestID, err)
	}

	for i, c := range r.Contributions {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO `"+s.table+"_donors` (request_id, seq, city, sent, distance_km) VALUES (?, ?, ?, ?, ?)",
			r.RequestID, i, c.City, c.Sent, c.DistanceKm)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("audit: insert donor %s: %w", c.City, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("audit: commit: %w", err)
	}
	return nil
}

func (s *MySQLSink) Close() error { return s.db.Close() }
