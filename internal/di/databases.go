// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/loonie/internal/config"
	"github.com/aristath/loonie/internal/database"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens client_data.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Clock: clockwork.NewRealClock()}

	// client_data.db - External API response cache (exchange rates, locations)
	clientDataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache, // Maximum speed for cache data
		Name:    "client_data",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}
	container.ClientDataDB = clientDataDB

	if err := clientDataDB.Migrate(); err != nil {
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", clientDataDB.Name(), err)
	}

	log.Info().Str("path", clientDataDB.Path()).Msg("Database initialized and schema applied")

	return container, nil
}
