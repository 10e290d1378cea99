package commands

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/logger"
)

type MigrateCmd struct {
	Store StoreFlags `embed:""`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	_, closeStores, err := c.Store.open(ctx, true)
	if err != nil {
		return err
	}
	defer closeStores()

	log.Info().Str("store", c.Store.StoreType).Msg("Migrations applied")
	return nil
}
