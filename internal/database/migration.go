package database

import (
	"embed"
	stderrors "errors"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrations embed.FS

// MigrationLogger adapts the service logger to migrate.Logger
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return false
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// Migrate applies the embedded schema migrations for the instance's driver.
func Migrate(db *DatabaseInstance) error {
	driverName := db.DriverName()

	var (
		driver migratedb.Driver
		err    error
	)
	switch driverName {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	default:
		return errors.Errorf("unsupported database driver %q", driverName)
	}
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}

	source, err := iofs.New(migrations, "migrations/"+driverName)
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		db.logger.WithError(err).Error("Failed to create migrate instance")
		return errors.Wrap(err, "failed to create migrate instance")
	}
	m.Log = MigrationLogger{Logger: db.logger}

	if err := m.Up(); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("No new migrations to apply")
			return nil
		}
		version, dirty, _ := m.Version()
		db.logger.WithError(err).Errorf("Failed to apply migrations. Database version is dirty=%t at version %d", dirty, version)
		return errors.Wrap(err, "failed to apply migrations")
	}

	db.logger.Info("Successfully applied migrations")
	return nil
}
