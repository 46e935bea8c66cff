// Package config loads the two YAML files that describe a deployment: a
// common file shared by every calendar instance on a site (protocol, host,
// database) and an instance file for one calendar (ports, URL prefix,
// table names, banner, links, zone).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/halocal/halocal/internal/db"
)

// ErrInvalidIdentifier is returned by Validate when a configured table name
// cannot be used verbatim in SQL.
var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

// Common is shared by every instance on a site.
type Common struct {
	// Proto is the scheme the site is reached by, "http" or "https". Cookies
	// are marked Secure when it is https.
	Proto string `yaml:"proto"`
	// Site is the public host name, used in iCalendar UIDs.
	Site string `yaml:"site"`
	// DBDriver selects the store: "pgx" (PostgreSQL) or "sqlite".
	DBDriver   string `yaml:"dbDriver"`
	DBURL      string `yaml:"dbURL"`
	DBLogin    string `yaml:"dbLogin"`
	DBPassword string `yaml:"dbPassword"`
}

// Instance describes one calendar.
type Instance struct {
	RemotePort int    `yaml:"remotePort"`
	URLPath    string `yaml:"urlPath"`
	LocalPort  int    `yaml:"localPort"`

	TableOfUsers  string `yaml:"tableOfUsers"`
	TableOfEvents string `yaml:"tableOfEvents"`

	// Links are extra navigation entries on the main page, label to URL.
	Links map[string]string `yaml:"links"`
	// Top is an optional banner shown above the calendar.
	Top       string `yaml:"top"`
	StaticDir string `yaml:"staticDir"`
	// ZoneID is the IANA zone the stored civil times belong to.
	ZoneID string `yaml:"zoneId"`

	BcryptCost int    `yaml:"bcryptCost"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`
}

// Config is the merged view used by the rest of the program.
type Config struct {
	Common   Common
	Instance Instance
}

// Normalize fills in missing values with defaults.
func (c *Common) Normalize() {
	if c.Proto == "" {
		c.Proto = "http"
	}
	if c.Site == "" {
		c.Site = "localhost"
	}
	if c.DBDriver == "" {
		c.DBDriver = string(db.SQLite)
	}
	if c.DBDriver == "postgres" || c.DBDriver == "postgresql" {
		c.DBDriver = string(db.Postgres)
	}
	// Connection strings copied from JDBC-style configs keep their prefix.
	c.DBURL = strings.TrimPrefix(c.DBURL, "jdbc:")
	if c.DBURL == "" && c.DBDriver == string(db.SQLite) {
		c.DBURL = "halocal.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
}

// Normalize fills in missing values with defaults.
func (i *Instance) Normalize() {
	if i.LocalPort == 0 {
		i.LocalPort = 8080
	}
	if i.RemotePort == 0 {
		i.RemotePort = i.LocalPort
	}
	if i.URLPath == "" {
		i.URLPath = "/"
	}
	if !strings.HasPrefix(i.URLPath, "/") {
		i.URLPath = "/" + i.URLPath
	}
	if !strings.HasSuffix(i.URLPath, "/") {
		i.URLPath += "/"
	}
	if i.TableOfUsers == "" {
		i.TableOfUsers = "users"
	}
	if i.TableOfEvents == "" {
		i.TableOfEvents = "events"
	}
	if i.Links == nil {
		i.Links = map[string]string{}
	}
	if i.StaticDir == "" {
		i.StaticDir = "static"
	}
	if i.ZoneID == "" {
		i.ZoneID = "UTC"
	}
	if i.LogLevel == "" {
		i.LogLevel = "info"
	}
	if i.LogFormat == "" {
		i.LogFormat = "text"
	}
}

// Validate reports configuration that would fail later at runtime.
func (c *Config) Validate() error {
	switch c.Common.Proto {
	case "http", "https":
	default:
		return fmt.Errorf("proto must be http or https, got %q", c.Common.Proto)
	}
	switch db.Dialect(c.Common.DBDriver) {
	case db.SQLite, db.Postgres:
	default:
		return fmt.Errorf("dbDriver must be pgx or sqlite, got %q", c.Common.DBDriver)
	}
	if c.Common.DBURL == "" {
		return errors.New("dbURL is required")
	}
	for _, name := range []string{c.Instance.TableOfUsers, c.Instance.TableOfEvents} {
		if !db.ValidIdentifier(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	if _, err := time.LoadLocation(c.Instance.ZoneID); err != nil {
		return fmt.Errorf("zoneId: %w", err)
	}
	if c.Instance.LocalPort < 1 || c.Instance.LocalPort > 65535 {
		return fmt.Errorf("localPort out of range: %d", c.Instance.LocalPort)
	}
	return nil
}

// Location loads the configured zone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Instance.ZoneID)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Secure reports whether cookies must carry the Secure attribute.
func (c *Config) Secure() bool { return c.Common.Proto == "https" }

// Load reads, normalizes and validates the common and instance files.
func Load(commonPath, instancePath string) (*Config, error) {
	var cfg Config
	if err := readYAML(commonPath, &cfg.Common); err != nil {
		return nil, fmt.Errorf("common config: %w", err)
	}
	if err := readYAML(instancePath, &cfg.Instance); err != nil {
		return nil, fmt.Errorf("instance config: %w", err)
	}
	cfg.Common.Normalize()
	cfg.Instance.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readYAML(path string, v any) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
