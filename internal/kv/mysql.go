package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const createSlotsTable = `CREATE TABLE IF NOT EXISTS kv_slots (
    slot_key VARCHAR(191) PRIMARY KEY,
    slot_value LONGBLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

// MySQL stores slots as rows of the kv_slots table.
type MySQL struct {
	db      *sql.DB
	timeout time.Duration
}

// NewMySQL connects to dsn, verifies the connection and creates the kv_slots
// table if it does not exist.
func NewMySQL(dsn string, timeout time.Duration) (*MySQL, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("kv: mysql driver requires a dsn")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &MySQL{db: sql.OpenDB(connector), timeout: timeout}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createSlotsTable); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("create kv_slots: %w", err)
	}
	return s, nil
}

func (s *MySQL) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *MySQL) Get(key string) ([]byte, error) {
	if err := validateSlotKey(key); err != nil {
		return nil, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT slot_value FROM kv_slots WHERE slot_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select slot %q: %w", key, err)
	}
	return value, nil
}

func (s *MySQL) Set(key string, value []byte) error {
	if err := validateSlotKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_slots (slot_key, slot_value) VALUES (?, ?)
ON DUPLICATE KEY UPDATE slot_value = VALUES(slot_value)`, key, value)
	if err != nil {
		return fmt.Errorf("upsert slot %q: %w", key, err)
	}
	return nil
}

func (s *MySQL) Close() error {
	return s.db.Close()
}

func validateSlotKey(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(key) > 191 {
		return fmt.Errorf("%w: longer than 191 bytes", ErrInvalidKey)
	}
	return nil
}
