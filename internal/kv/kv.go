// Package kv provides the durable key-value slots the task list is persisted in.
//
// Every backend stores opaque byte values under string keys and replaces a
// value wholesale on Set; there are no partial or merge writes.
package kv

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("kv: key not found")

	// ErrInvalidKey is returned for empty keys or keys that cannot be stored.
	ErrInvalidKey = errors.New("kv: invalid key")

	// ErrUnknownDriver is returned by Open for an unrecognized driver name.
	ErrUnknownDriver = errors.New("kv: unknown driver")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("kv: store closed")
)

// Store is a durable key-value slot store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(key string, value []byte) error
	// Close releases any resources held by the store.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
)

// Options configures Open.
type Options struct {
	// Dir is the directory used by the file driver.
	Dir string
	// DSN is the data source name used by the mysql driver.
	DSN string
	// Timeout bounds each mysql round trip. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a single database round trip.
const DefaultTimeout = 5 * time.Second

// Drivers returns the accepted driver names.
func Drivers() []string {
	return []string{DriverFile, DriverMemory, DriverMySQL}
}

// Open selects and opens a backend by driver name.
func Open(driver string, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverFile, "":
		s, err := NewFile(opts.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverMySQL:
		s, err := NewMySQL(opts.DSN, opts.Timeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return nil
}
