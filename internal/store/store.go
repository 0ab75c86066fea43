package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// pragmas are applied on the worker right after the file is opened.
var pragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-8000",
	"PRAGMA temp_store=MEMORY",
}

// Conn owns the single database handle. Every statement, whatever goroutine
// asked for it, runs on one worker goroutine in submission order; RunSync and
// Do are the only ways in.
//
// A closure running on the worker must not call RunSync or Do on the same Conn:
// the worker would wait on itself forever.
type Conn struct {
	path string
	db   *sql.DB
	h    *Handle

	mu       sync.RWMutex // guards closed and sends on jobs
	closed   bool
	jobs     chan job
	done     chan struct{}
	closeErr error
}

type job struct {
	fn    func(*Handle) error
	reply chan error
}

// Open opens (or creates) the SQLite database at dbPath, configures it and
// runs migrations. Any failure is a connection error and leaves nothing open.
func Open(dbPath string) (*Conn, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, ConnectionError("create db directory", err)
		}
	}

	log.Printf("store: opening database at %s", dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ConnectionError("open database", err)
	}

	// One physical connection; an in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &Conn{
		path: dbPath,
		db:   db,
		h:    &Handle{db: db},
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	go c.loop()

	err = Do(c, func(h *Handle) error {
		if err := db.Ping(); err != nil {
			return ConnectionError("ping database", err)
		}
		for _, p := range pragmas {
			if err := h.Execute(p); err != nil {
				return ConnectionError(fmt.Sprintf("exec %q", p), err)
			}
		}
		if err := migrate(h); err != nil {
			return ConnectionError("migrate", err)
		}
		return nil
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	log.Printf("store: database ready (schema version %d)", currentVersion)
	return c, nil
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*Conn, error) {
	return Open(":memory:")
}

// Path returns the path the connection was opened with.
func (c *Conn) Path() string {
	return c.path
}

// Close rolls back any open transaction and releases the handle. It is safe
// to call more than once; later operations fail with a connection error.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.jobs)
	c.mu.Unlock()

	<-c.done
	log.Printf("store: database closed")
	if c.closeErr != nil {
		return ConnectionError("close database", c.closeErr)
	}
	return nil
}

func (c *Conn) loop() {
	defer close(c.done)
	for j := range c.jobs {
		j.reply <- c.run(j.fn)
	}
	if c.h.tx != nil {
		c.h.tx.Rollback()
		c.h.tx = nil
	}
	c.closeErr = c.db.Close()
}

func (c *Conn) run(fn func(*Handle) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store: operation panicked: %v", r)
		}
	}()
	return fn(c.h)
}

func (c *Conn) submit(fn func(*Handle) error) error {
	reply := make(chan error, 1)

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errNotConnected
	}
	c.jobs <- job{fn: fn, reply: reply}
	c.mu.RUnlock()

	return <-reply
}

// RunSync runs op on the worker and blocks until it returns, handing back the
// op's own result and error.
func RunSync[T any](c *Conn, op func(h *Handle) (T, error)) (T, error) {
	var out T
	err := c.submit(func(h *Handle) error {
		v, err := op(h)
		out = v
		return err
	})
	return out, err
}

// Do is RunSync for operations without a result.
func Do(c *Conn, op func(h *Handle) error) error {
	return c.submit(op)
}

// WithTx runs op inside a transaction on the worker. The transaction is
// rolled back explicitly when op fails and committed otherwise.
func WithTx(c *Conn, op func(h *Handle) error) error {
	return c.submit(func(h *Handle) error {
		if err := h.Begin(); err != nil {
			return err
		}
		if err := op(h); err != nil {
			if rbErr := h.Rollback(); rbErr != nil {
				log.Printf("store: rollback failed: %v", rbErr)
			}
			return err
		}
		return h.Commit()
	})
}

// Begin opens a transaction that stays open across later operations until
// Commit or Rollback. Only one transaction can be open at a time.
func (c *Conn) Begin() error {
	return c.submit(func(h *Handle) error { return h.Begin() })
}

func (c *Conn) Commit() error {
	return c.submit(func(h *Handle) error { return h.Commit() })
}

func (c *Conn) Rollback() error {
	return c.submit(func(h *Handle) error { return h.Rollback() })
}

// DefaultDBPath returns ~/.config/tempo/tempo.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tempo", "tempo.db"), nil
}
