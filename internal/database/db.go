// Package database opens the MySQL connection pool behind repository.SQLStore
// and applies its schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// connectAttempts bounds how long Open waits for a database that is still
// starting, e.g. a container brought up alongside the server.
const connectAttempts = 5

// DSN returns the driver connection string. Times are parsed into
// time.Time in UTC and multiple statements are allowed for Migrate.
func DSN(user, pass, host, port, name string) string {
	c := mysql.NewConfig()
	c.User = user
	c.Passwd = pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, port)
	c.DBName = name
	c.ParseTime = true
	c.Loc = time.UTC
	c.MultiStatements = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL, sizes the pool and pings until the server answers
// or the attempts run out.
func Open(user, pass, host, port, name string, log logrus.FieldLogger) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	wait := time.Second
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			_ = db.Close()
			return nil, fmt.Errorf("ping %s after %d attempts: %w", host, attempt, err)
		}
		log.WithError(err).WithField("retry_in", wait).Warn("database not reachable yet")
		time.Sleep(wait)
		wait *= 2
	}
}
