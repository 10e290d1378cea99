package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/auth"
	"github.com/wolfeidau/leadtrack/internal/client"
	"github.com/wolfeidau/leadtrack/internal/config"
	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/logger"
	"github.com/wolfeidau/leadtrack/internal/login"
	"github.com/wolfeidau/leadtrack/internal/notify"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
	"github.com/wolfeidau/leadtrack/internal/web"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8000" env:"LEADTRACK_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"LEADTRACK_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"LEADTRACK_TLS_KEY"`

	// Site settings
	AllowedHosts []string      `help:"host names the server answers for" env:"LEADTRACK_ALLOWED_HOSTS"`
	SecretKey    string        `help:"secret key for signing API tokens (at least 32 bytes)" env:"LEADTRACK_SECRET_KEY"`
	BaseURL      string        `help:"public base URL of the site" default:"http://localhost:8000" env:"LEADTRACK_BASE_URL"`
	SessionTTL   time.Duration `help:"session TTL" default:"336h" env:"LEADTRACK_SESSION_TTL"`
	CORSOrigins  []string      `help:"allowed CORS origins for API requests" default:"http://localhost:8000" env:"LEADTRACK_CORS_ORIGINS"`

	// Static assets
	AssetsBaseDir string `help:"directory containing the ui sources" default:"." env:"LEADTRACK_ASSETS_BASE_DIR"`
	StaticRoot    string `help:"directory the asset bundles are served from" default:"public" env:"LEADTRACK_STATIC_ROOT"`
	StaticURL     string `help:"URL prefix for static assets" default:"/static/" env:"LEADTRACK_STATIC_URL"`
	BuildAssets   bool   `help:"bundle the ui assets on startup instead of loading an existing build" default:"false" env:"LEADTRACK_BUILD_ASSETS"`

	// GitHub OAuth configuration
	ClientID       string `help:"GitHub client ID" default:"" env:"LEADTRACK_GITHUB_CLIENT_ID"`
	ClientSecret   string `help:"GitHub client secret" default:"" env:"LEADTRACK_GITHUB_CLIENT_SECRET"`
	CallbackURL    string `help:"GitHub callback URL, defaults to the base URL + /github/callback" default:"" env:"LEADTRACK_GITHUB_CALLBACK_URL"`
	GitHubCacheDir string `help:"directory for cached GitHub API responses, in memory when empty" default:"" env:"LEADTRACK_GITHUB_CACHE_DIR"`
	LandingURL     string `help:"page users are sent to after logging in" default:"/leads/" env:"LEADTRACK_LANDING_URL"`

	// Operational modes
	AutoMigrate      bool          `help:"run database migrations on startup" default:"true" env:"LEADTRACK_AUTO_MIGRATE" negatable:""`
	Tracing          bool          `help:"enable tracing" default:"false" env:"LEADTRACK_TRACING"`
	TraceSampleRatio float64       `help:"fraction of traces to keep" default:"1" env:"LEADTRACK_TRACE_SAMPLE_RATIO"`
	SessionCleanup   time.Duration `help:"interval between expired session sweeps, 0 disables" default:"1h" env:"LEADTRACK_SESSION_CLEANUP"`

	Mail  MailFlags  `embed:"" prefix:"mail-"`
	Store StoreFlags `embed:""`
}

// MailFlags configure the lead created notification.
type MailFlags struct {
	Transport string   `help:"mail transport (console, ses, or amqp)" default:"console" env:"LEADTRACK_MAIL_TRANSPORT" enum:"console,ses,amqp"`
	From      string   `help:"sender address" default:"leadtrack@localhost" env:"LEADTRACK_MAIL_FROM"`
	To        []string `help:"recipients of the notification" default:"organisor@localhost" env:"LEADTRACK_MAIL_TO"`
	SESRegion string   `help:"AWS region for SES, empty uses the default chain" default:"" env:"LEADTRACK_MAIL_SES_REGION"`
	AMQPURL   string   `help:"AMQP broker URL" default:"" env:"LEADTRACK_MAIL_AMQP_URL"`
	AMQPQueue string   `help:"AMQP queue the messages are published to" default:"leadtrack.mail" env:"LEADTRACK_MAIL_AMQP_QUEUE"`
}

func (c *ServeCmd) settings(debug bool) config.Settings {
	return config.Settings{
		Debug:        debug,
		AllowedHosts: c.AllowedHosts,
		SecretKey:    c.SecretKey,
		BaseURL:      c.BaseURL,
		StaticRoot:   c.StaticRoot,
		StaticURL:    c.StaticURL,
		SessionTTL:   c.SessionTTL,
		CORSOrigins:  c.CORSOrigins,
		Mail: notify.Config{
			Transport: c.Mail.Transport,
			From:      c.Mail.From,
			To:        c.Mail.To,
			SESRegion: c.Mail.SESRegion,
			AMQPURL:   c.Mail.AMQPURL,
			AMQPQueue: c.Mail.AMQPQueue,
		},
	}
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	settings := c.settings(globals.Debug)
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if c.Tracing {
		log.Info().Float64("sample_ratio", c.TraceSampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "leadtrack-server", globals.Version, c.TraceSampleRatio)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, closeStores, err := c.Store.open(ctx, c.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeStores()

	mailer, err := notify.Open(ctx, settings.Mail)
	if err != nil {
		return fmt.Errorf("failed to open mail transport: %w", err)
	}
	defer func() {
		if err := mailer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close mail transport")
		}
	}()

	services := web.Services{
		Leads:      crm.NewLeadService(stores, notify.NewLeadNotifier(mailer, settings.Mail)),
		Categories: crm.NewCategoryService(stores),
		Agents:     crm.NewAgentService(stores),
	}

	issuer, err := auth.NewTokenIssuer([]byte(settings.SecretKey), settings.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	log.Info().
		Str("issuer", settings.BaseURL).
		Str("kid", issuer.Kid()).
		Msg("API token issuer initialized")

	callbackURL := c.CallbackURL
	if callbackURL == "" {
		callbackURL = settings.BaseURL + "/github/callback"
	}

	httpClient := client.New(client.Config{
		Timeout:  30 * time.Second,
		CacheDir: c.GitHubCacheDir,
		Tracing:  c.Tracing,
	})

	gh, err := login.NewGithub(c.ClientID, c.ClientSecret, callbackURL,
		login.Stores{Sessions: stores.Sessions, Users: stores.Users, Agents: stores.Agents},
		crm.NewProvisioner(stores), settings.SessionTTL,
		login.WithHTTPClient(httpClient),
		login.WithSecureCookies(settings.SecureCookies()),
		login.WithLandingURL(c.LandingURL),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize GitHub OAuth: %w", err)
	}

	pages, err := web.NewPipeline(assetsConfig(c.AssetsBaseDir, settings.StaticRoot, settings.StaticURL, !settings.Debug))
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}
	if c.BuildAssets {
		if err := pages.Build(); err != nil {
			return fmt.Errorf("failed to build assets: %w", err)
		}
	} else if err := pages.LoadMetafile(); err != nil {
		log.Warn().Err(err).Msg("No asset build found, pages render without scripts and styles")
	}

	if c.SessionCleanup > 0 {
		go sweepSessions(ctx, stores.Sessions, c.SessionCleanup)
	}

	srv := configureHTTPServer(c.Listen, web.New(settings, services, gh, issuer, pages, web.WithTracing(c.Tracing)).Handler())

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" || c.Key != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// sweepSessions deletes expired sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, sessions store.SessionStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("Failed to delete expired sessions")
				continue
			}
			if n > 0 {
				log.Info().Int("count", n).Msg("Deleted expired sessions")
			}
		}
	}
}
