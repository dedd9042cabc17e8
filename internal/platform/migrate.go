package platform

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

// RunMigrations applies every pending migration found in migrationsFS to
// databaseURL, fixing a dirty version before retrying the way the
// counter-service's migrator does. Each service calls this once at start-up
// against its own embedded migrations directory; schema migration itself
// stays out of this platform's core scope, but running it is part of the
// ambient stack every service carries.
func RunMigrations(migrationsFS fs.FS, databaseURL string, logger zerolog.Logger) error {
	source, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("build migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("build migration instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		logger.Warn().Uint("version", version).Msg("database is dirty, forcing version before retry")
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force migration version: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("database already at latest migration")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info().Uint("version", newVersion).Msg("migrations applied")
	return nil
}
