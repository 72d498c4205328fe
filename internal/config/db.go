package config

// Supported gorm engines.
const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string // database name, or the file path for sqlite
	GormEngine   string
	MaxOpenConns int
	Debug        bool // log every statement through gorm
}
