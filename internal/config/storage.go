package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// PostgresConnectionString builds the key=value DSN handed to pgxpool.
// The password is the one field users put arbitrary characters in, so it
// is single-quoted with backslash escaping per the libpq DSN rules.
func (c *Config) PostgresConnectionString() string {
	password := strings.ReplaceAll(c.PostgresPassword, `\`, `\\`)
	password = strings.ReplaceAll(password, `'`, `\'`)

	return fmt.Sprintf("host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, password,
		c.PostgresDBName, c.PostgresSSLMode)
}

// PostgresURL renders the same connection settings as a postgres:// URL,
// the form golang-migrate consumes. url.URL escapes the credentials, so a
// password full of reserved characters survives the trip through URL
// syntax.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDBName,
		RawQuery: "sslmode=" + c.PostgresSSLMode,
	}
	return u.String()
}

// parseDatabaseURL applies DATABASE_URL on top of the postgres_* settings.
// The single-URL form is what managed Postgres providers hand out, so it
// wins over the individual fields; components absent from the URL keep
// their configured values. An unset DATABASE_URL is a no-op.
func (c *Config) parseDatabaseURL() error {
	raw := os.Getenv("DATABASE_URL")
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL format: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://, got %q", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port in DATABASE_URL: %w", err)
		}
		c.PostgresPort = port
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			c.PostgresUser = name
		}
		if password, ok := u.User.Password(); ok {
			c.PostgresPassword = password
		}
	}
	if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
		c.PostgresDBName = dbName
	}
	if sslMode := u.Query().Get("sslmode"); sslMode != "" {
		c.PostgresSSLMode = sslMode
	}

	return nil
}
