// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/runtime-config/runtime-config/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return MySQL(&cfg.DB)
	case config.EngineSQLite:
		return SQLite(&cfg.DB)
	default:
		return Postgres(&cfg.DB)
	}
}

// MySQL returns a go-sql-driver DSN. parseTime is required for time.Time columns.
func MySQL(db *config.DB) string {
	extras := db.Extras
	if !strings.Contains(extras, "parseTime") {
		extras = strings.TrimPrefix(extras+"&parseTime=true", "&")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		extras,
	)
}

// Postgres returns a pgx keyword/value DSN. Values are quoted, so empty
// values and values with spaces or quotes survive parsing. Extras are
// appended verbatim.
func Postgres(db *config.DB) string {
	return strings.TrimSpace(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s %s",
		quote(db.Host),
		db.Port,
		quote(db.User),
		quote(db.Password),
		quote(db.Name),
		db.Extras,
	))
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`) //nolint:gochecknoglobals

func quote(v string) string {
	return "'" + quoteReplacer.Replace(v) + "'"
}

// SQLite returns the database file name with the foreign key pragma enabled.
func SQLite(db *config.DB) string {
	name := db.Name
	if name == "" {
		name = ":memory:"
	}

	pragma := "_pragma=foreign_keys(1)"
	if db.Extras != "" {
		pragma += "&" + db.Extras
	}

	if strings.Contains(name, "?") {
		return name + "&" + pragma
	}

	return name + "?" + pragma
}
