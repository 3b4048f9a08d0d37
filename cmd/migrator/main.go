package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	directionFlag     = "direction"
	stepsFlag         = "steps"
)

const (
	up   = "up"
	down = "down"
)

type flags struct {
	storagePath    string
	migrationsPath string
	direction      string
	steps          int
}

func main() {
	f := getFlagsValues()
	validateFlags(f)
	makeMigrations(f)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() flags {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres dsn without scheme")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "", "migrations directory")
	direction := pflag.StringP(directionFlag, "d", up, "up or down")
	steps := pflag.IntP(stepsFlag, "n", 0, "number of migrations, 0 applies all")
	pflag.Parse()
	return flags{*storagePath, *migrationsPath, *direction, *steps}
}

func validateFlags(f flags) {
	var errs []error

	if f.storagePath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", storagePathFlag))
	}

	if f.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if f.direction != up && f.direction != down {
		errs = append(errs, fmt.Errorf("--%s flag: want %q or %q", directionFlag, up, down))
	}

	if f.steps < 0 {
		errs = append(errs, fmt.Errorf("--%s flag: negative", stepsFlag))
	}

	if len(errs) != 0 {
		slog.Error("invalid args", "err", errors.Join(errs...))
		fallDown()
	}
}

func makeMigrations(f flags) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", f.migrationsPath),
		fmt.Sprintf("pgx5://%s", f.storagePath),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			slog.Error("failed to close migrator", "err", err)
		}
	}()

	m.Log = NewMigrationLogger()

	if err := apply(m, f); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		slog.Error("failed to read version", "err", err)
		return
	}
	m.Log.Printf("migration applied, version=%d dirty=%t", version, dirty)
}

func apply(m *migrate.Migrate, f flags) error {
	switch {
	case f.steps != 0 && f.direction == down:
		return m.Steps(-f.steps)
	case f.steps != 0:
		return m.Steps(f.steps)
	case f.direction == down:
		return m.Down()
	}
	return m.Up()
}

func fallDown() {
	os.Exit(2)
}
