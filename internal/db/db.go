// Package db opens the event store and runs its schema migrations.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE: two drivers behind one database/sql pool
// ────────────────────────────────────────────────────────────────────
// Production runs on PostgreSQL through pgx; development and every test
// run on modernc.org/sqlite, a pure-Go port of SQLite that needs no C
// compiler. Both register with database/sql, so the rest of the program
// only ever sees a *sql.DB and a Dialect:
//
//	sqlite   placeholders are "?", dates and times are stored as TEXT
//	pgx      placeholders are "$1, $2, …", dates and times are native
//	         DATE / TIME columns
//
// Queries are written once with "?" and rewritten by Dialect.Rebind
// before they reach a pgx connection.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	// Blank import: the modernc driver registers itself with
	// database/sql under the name "sqlite" when this package loads.
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour spoken by the connection.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "pgx"
)

// ErrNotFound is returned when a row addressed by id does not exist (or is
// not owned by the caller, for owner-scoped writes).
var ErrNotFound = errors.New("not found")

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidIdentifier reports whether name may be spliced into SQL as a table
// name. Table names come from configuration, never from requests.
func ValidIdentifier(name string) bool { return identRE.MatchString(name) }

// Rebind rewrites "?" placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Options describes how to reach the store.
type Options struct {
	Driver      Dialect
	DSN         string
	Login       string // pgx only; overrides the user in DSN when set
	Password    string // pgx only
	UsersTable  string
	EventsTable string
}

// Store is the SQL-backed repository for users and events.
// database/sql is safe for concurrent use, so one Store serves every request.
type Store struct {
	db      *sql.DB
	dialect Dialect
	users   string
	events  string
	log     *slog.Logger
}

// Open connects to the database described by opts and runs all migrations.
//
// Recommended DSN formats:
//   - SQLite file:  "halocal.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
//   - SQLite tests: "file:testXYZ?mode=memory&cache=shared"
//   - PostgreSQL:   "postgres://localhost:5432/halocal?sslmode=disable"
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.UsersTable == "" {
		opts.UsersTable = "users"
	}
	if opts.EventsTable == "" {
		opts.EventsTable = "events"
	}
	for _, name := range []string{opts.UsersTable, opts.EventsTable} {
		if !ValidIdentifier(name) {
			return nil, fmt.Errorf("table name %q is not a valid identifier", name)
		}
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	switch opts.Driver {
	case SQLite, "":
		opts.Driver = SQLite
		// sql.Open does NOT open a real connection yet. The first one is
		// made lazily by the migration below.
		sqlDB, err = sql.Open("sqlite", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
	case Postgres:
		cfg, perr := pgx.ParseConfig(opts.DSN)
		if perr != nil {
			return nil, fmt.Errorf("parse dsn: %w", perr)
		}
		if opts.Login != "" {
			cfg.User = opts.Login
		}
		if opts.Password != "" {
			cfg.Password = opts.Password
		}
		sqlDB = stdlib.OpenDB(*cfg)
	default:
		return nil, fmt.Errorf("unknown db driver %q", opts.Driver)
	}

	s := &Store{
		db:      sqlDB,
		dialect: opts.Driver,
		users:   opts.UsersTable,
		events:  opts.EventsTable,
		log:     logger,
	}
	if err := s.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("database ready", "driver", string(opts.Driver),
		"users_table", opts.UsersTable, "events_table", opts.EventsTable)
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying pool, mainly for tests and the adduser command.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect reports which SQL flavour the store speaks.
func (s *Store) Dialect() Dialect { return s.dialect }

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// migrate runs each DDL statement in the schema individually.
//
// LEARNING NOTE: why not one big Exec(schema)?
// The sqlite driver executes only the FIRST statement of a
// multi-statement string, and pgx refuses them in the extended protocol.
// Splitting on ";" and looping works for both.
func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.schema(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement failed: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

// schema returns the CREATE statements for the configured table names.
//
// LEARNING NOTE: schema design choices
//
//	users    login is deliberately NOT unique: the credential check
//	         accepts a password matching any row for the login, and a
//	         password change rewrites all of them.
//
//	events   start_date and start_time are the owner's civil values;
//	         no zone is stored. The configured zone is applied only
//	         when a listing is rendered. Visibility codes are CHECKed
//	         on write; reads still reject anything outside 0..2 in case
//	         the table was edited by hand.
func (s *Store) schema() string {
	id, dateType, timeType := "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "TEXT"
	if s.dialect == Postgres {
		id, dateType, timeType = "SERIAL PRIMARY KEY", "DATE", "TIME"
	}
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    login    TEXT NOT NULL,
    password TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS %[1]s_login_idx ON %[1]s (login);

CREATE TABLE IF NOT EXISTS %[2]s (
    id            %[3]s,
    owner         TEXT NOT NULL,
    start_date    %[4]s NOT NULL,
    start_time    %[5]s NOT NULL,
    repeat_weeks  INTEGER NOT NULL DEFAULT 0 CHECK (repeat_weeks >= 0),
    description   TEXT NOT NULL DEFAULT '',
    link          TEXT NOT NULL DEFAULT '',
    show_to_group INTEGER NOT NULL DEFAULT 0 CHECK (show_to_group BETWEEN 0 AND 2),
    show_to_all   INTEGER NOT NULL DEFAULT 0 CHECK (show_to_all BETWEEN 0 AND 2)
);

CREATE INDEX IF NOT EXISTS %[2]s_owner_idx ON %[2]s (owner);
`, s.users, s.events, id, dateType, timeType)
}
