package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/logger"
)

// ProvisionCmd creates an organisation without going through the GitHub login,
// for seeding a deployment before its organisor first signs in.
type ProvisionCmd struct {
	OrgName   string `help:"organisation name (defaults to the username)"`
	Username  string `help:"organisor username" required:""`
	Email     string `help:"organisor email, matched against the verified GitHub email on login" required:""`
	FirstName string `help:"organisor first name"`
	LastName  string `help:"organisor last name"`

	Store StoreFlags `embed:""`
}

func (c *ProvisionCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	stores, closeStores, err := c.Store.open(ctx, true)
	if err != nil {
		return err
	}
	defer closeStores()

	user, err := crm.NewProvisioner(stores).Signup(ctx, crm.SignupInput{
		OrgName:   c.OrgName,
		Username:  c.Username,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	})
	if err != nil {
		return fmt.Errorf("failed to provision organisation: %w", err)
	}

	log.Info().
		Str("user_id", user.UserID.String()).
		Str("org_id", user.OrgID.String()).
		Str("email", user.Email).
		Msg("Organisation provisioned")

	return nil
}
