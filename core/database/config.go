package database

import (
	"fmt"
	"strings"
)

const (
	// DriverSQLite stores everything in a single local file.
	DriverSQLite = "sqlite3"
	// DriverPostgres connects to a PostgreSQL server.
	DriverPostgres = "postgres"

	defaultSQLitePath = "data/database.db"
)

// Config holds database connection settings.
type Config struct {
	Driver string `yaml:"driver" envconfig:"DB_DRIVER"`
	// Path is the SQLite database file.
	Path string `yaml:"path" envconfig:"DB_PATH"`

	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Normalize fills defaults and rejects unknown drivers.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", "sqlite", DriverSQLite:
		c.Driver = DriverSQLite
		if strings.TrimSpace(c.Path) == "" {
			c.Path = defaultSQLitePath
		}
		// one writer at a time on a file database
		c.MaxConnections = 1
	case "postgresql", DriverPostgres:
		c.Driver = DriverPostgres
		if c.Host == "" || c.Name == "" {
			return fmt.Errorf("database.host and database.name are required for postgres")
		}
		if c.Port == "" {
			c.Port = "5432"
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
		if c.MaxConnections <= 0 {
			c.MaxConnections = 5
		}
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: sqlite3, postgres", c.Driver)
	}
	return nil
}

// DSN renders the driver-specific connection string.
func (c Config) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf(
			"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
			c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
		)
	}
	return c.Path + "?_busy_timeout=5000"
}

// Target names the database for logs without leaking credentials.
func (c Config) Target() string {
	if c.Driver == DriverPostgres {
		return c.Host + ":" + c.Port + "/" + c.Name
	}
	return c.Path
}
