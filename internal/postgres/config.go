package postgres

import (
	"errors"
	"flag"
	"fmt"
	"time"
)

// Config holds connection pool and query logging settings.
type Config struct {
	URL       string
	MaxConns  int
	MinConns  int
	SlowQuery time.Duration
	LogArgs   bool
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.URL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.IntVar(&c.MaxConns, "database-max-conns", 10, "maximum pooled connections (1..200)")
	fs.IntVar(&c.MinConns, "database-min-conns", 0, "minimum idle pooled connections")
	fs.DurationVar(&c.SlowQuery, "database-slow-query", 250*time.Millisecond, "log queries at warn level above this duration (0 = log every query at info)")
	fs.BoolVar(&c.LogArgs, "database-log-args", false, "include query arguments in query logs")
}

// Validate checks the pool settings. An empty URL is valid and means no database.
func (c *Config) Validate() error {
	if c.URL == "" {
		return nil
	}
	var errs []error
	if c.MaxConns <= 0 || c.MaxConns > 200 {
		errs = append(errs, fmt.Errorf("invalid DATABASE_MAX_CONNS %d (must be 1..200)", c.MaxConns))
	}
	if c.MinConns < 0 || c.MinConns > c.MaxConns {
		errs = append(errs, fmt.Errorf("invalid DATABASE_MIN_CONNS %d (must be 0..DATABASE_MAX_CONNS)", c.MinConns))
	}
	if c.SlowQuery < 0 {
		errs = append(errs, errors.New("DATABASE_SLOW_QUERY must not be negative"))
	}
	return errors.Join(errs...)
}
