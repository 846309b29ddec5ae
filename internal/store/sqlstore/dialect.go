package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// tagSeparator joins aggregated tag names. domain.NormalizeTagNames strips
// control characters, so it never occurs inside a stored name.
const tagSeparator = "\x1f"

// Dialect isolates the SQL differences between supported engines.
// Queries are written with ? placeholders and rebound per engine.
type Dialect interface {
	Name() string
	DriverName() string
	// Rebind rewrites ? placeholders into the engine's native form.
	Rebind(query string) string
	// TagAggregate returns an expression concatenating col across a group,
	// joined by tagSeparator. It yields NULL for an empty group.
	TagAggregate(col string) string
	// Lower returns an expression case-folding col for substring search.
	Lower(col string) string
	// Fold applies the same folding as Lower to a Go string.
	Fold(s string) string
	Schema() string
	// ConnString adapts a user-supplied DSN for the driver.
	ConnString(dsn string) string
	// Init configures a freshly opened pool.
	Init(db *sql.DB) error
	IsUniqueViolation(err error) bool
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "postgresql", "pg":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

// sqliteFoldFunc is a Unicode case-folding SQL function. SQLite's built-in
// LOWER and LIKE only fold ASCII.
const sqliteFoldFunc = "beats_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFoldFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return foldCase(v), nil
			case []byte:
				return foldCase(string(v)), nil
			default:
				return v, nil
			}
		})
}

// foldCase applies full Unicode case folding. Casers are stateful, so each
// call gets its own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// SQLite is the embedded modernc.org/sqlite engine.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }
func (SQLite) Schema() string     { return sqliteSchema }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) TagAggregate(col string) string {
	return "GROUP_CONCAT(" + col + ", char(31))"
}

func (SQLite) Lower(col string) string { return sqliteFoldFunc + "(" + col + ")" }
func (SQLite) Fold(s string) string    { return foldCase(s) }

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// ConnString appends per-connection pragmas to a file path or file: URI.
func (SQLite) ConnString(dsn string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+url.QueryEscape(p))
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func (SQLite) Init(db *sql.DB) error {
	// One writer at a time; readers share the remaining connections.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	// journal_mode is persisted in the database file, so once is enough.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("exec pragma journal_mode: %w", err)
	}
	return nil
}

func (SQLite) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Postgres is the github.com/lib/pq engine.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "postgres" }
func (Postgres) Schema() string     { return postgresSchema }

// Rebind numbers placeholders $1..$n, leaving quoted literals untouched.
func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (Postgres) ConnString(dsn string) string { return dsn }

func (Postgres) TagAggregate(col string) string {
	return "STRING_AGG(" + col + ", chr(31))"
}

// Lower uses the server's LOWER, which is Unicode-aware for UTF8 databases.
func (Postgres) Lower(col string) string { return "LOWER(" + col + ")" }
func (Postgres) Fold(s string) string    { return cases.Lower(language.Und).String(s) }

func (Postgres) Init(db *sql.DB) error {
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return nil
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
