package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/assets"
	"github.com/wolfeidau/leadtrack/internal/logger"
)

type AssetsCmd struct {
	BaseDir    string `help:"directory containing the ui sources" default:"." env:"LEADTRACK_ASSETS_BASE_DIR"`
	StaticRoot string `help:"directory the bundles are written to" default:"public" env:"LEADTRACK_STATIC_ROOT"`
	StaticURL  string `help:"URL prefix the static root is served from" default:"/static/" env:"LEADTRACK_STATIC_URL"`
}

func (c *AssetsCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	pipeline := assets.New(assetsConfig(c.BaseDir, c.StaticRoot, c.StaticURL, !globals.Debug))
	if err := pipeline.Build(); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	log.Info().Str("static_root", c.StaticRoot).Msg("Assets built")
	return nil
}

func assetsConfig(baseDir, staticRoot, staticURL string, minify bool) assets.Config {
	cfg := assets.DefaultConfig()
	cfg.BaseDir = baseDir
	cfg.OutputDir = staticRoot
	cfg.MetafilePath = filepath.Join(staticRoot, "meta.json")
	cfg.PublicPath = staticURL
	cfg.Minify = minify
	return cfg
}
