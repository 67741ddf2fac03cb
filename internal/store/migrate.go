package store

import (
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies schema migrations from dir against dsn.
// steps == 0 migrates all the way up; a negative value rolls back
// that many migrations.
func RunMigrations(dsn, dir string, steps int, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(log.Writer(), "[MIGRATE] ", log.LstdFlags)
	}
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	defer m.Close()

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Printf("no schema changes to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Printf("migrations applied")
	return nil
}
