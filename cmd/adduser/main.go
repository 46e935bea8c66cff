// adduser creates a calendar login in the configured users table.
//
//	adduser -c common.yaml -i instance.yaml -login alice
//
// The password is read from the first line of standard input unless
// -password is given. Logins are not unique: adding an existing login
// gives it a second valid password.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/halocal/halocal/internal/auth"
	"github.com/halocal/halocal/internal/config"
	"github.com/halocal/halocal/internal/db"
	"github.com/halocal/halocal/internal/logging"
)

func main() {
	commonPath := flag.String("c", "common.yaml", "path to the common config file")
	instancePath := flag.String("i", "instance.yaml", "path to the instance config file")
	login := flag.String("login", "", "login to create")
	password := flag.String("password", "", "password (read from stdin when empty)")
	flag.Parse()

	if err := run(*commonPath, *instancePath, *login, *password, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "adduser: %v\n", err)
		os.Exit(1)
	}
}

func run(commonPath, instancePath, login, password string, stdin io.Reader) error {
	if login == "" {
		return errors.New("-login is required")
	}
	if password == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	cfg, err := config.Load(commonPath, instancePath)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Instance.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level, cfg.Instance.LogFormat)

	hash, err := auth.HashPassword(password, cfg.Instance.BcryptCost)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := db.Open(ctx, db.Options{
		Driver:      db.Dialect(cfg.Common.DBDriver),
		DSN:         cfg.Common.DBURL,
		Login:       cfg.Common.DBLogin,
		Password:    cfg.Common.DBPassword,
		UsersTable:  cfg.Instance.TableOfUsers,
		EventsTable: cfg.Instance.TableOfEvents,
	}, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.InsertUser(ctx, login, hash); err != nil {
		return err
	}
	logger.Info("user added", "login", login, "table", cfg.Instance.TableOfUsers)
	return nil
}
