package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"
)

type mailFlags struct {
	Transport string   `default:"console"`
	To        []string `default:"sales@example.com"`
}

type testCLI struct {
	Config       kong.ConfigFlag `help:"settings file"`
	Debug        bool
	AllowedHosts []string
	SessionTTL   time.Duration `default:"168h"`
	Listen       string        `default:":8080"`
	Mail         mailFlags     `embed:"" prefix:"mail-"`
}

func parse(t *testing.T, yamlDoc string, args ...string) testCLI {
	t.Helper()

	path := filepath.Join(t.TempDir(), "leadtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	var cli testCLI
	parser, err := kong.New(&cli, kong.Configuration(YAML, path), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cli
}

func TestYAML(t *testing.T) {
	doc := `
debug: true
allowed_hosts:
  - leads.example.com
  - .example.org
session-ttl: 12h
mail:
  transport: ses
  to: [a@example.com, b@example.com]
`

	t.Run("values from file", func(t *testing.T) {
		cli := parse(t, doc)
		require.True(t, cli.Debug)
		require.Equal(t, []string{"leads.example.com", ".example.org"}, cli.AllowedHosts)
		require.Equal(t, 12*time.Hour, cli.SessionTTL)
		require.Equal(t, "ses", cli.Mail.Transport)
		require.Equal(t, []string{"a@example.com", "b@example.com"}, cli.Mail.To)
		require.Equal(t, ":8080", cli.Listen)
	})

	t.Run("flags win over file", func(t *testing.T) {
		cli := parse(t, doc, "--mail-transport=amqp", "--listen=:9000")
		require.Equal(t, "amqp", cli.Mail.Transport)
		require.Equal(t, ":9000", cli.Listen)
	})

	t.Run("flat keys", func(t *testing.T) {
		cli := parse(t, "mail_transport: amqp\n")
		require.Equal(t, "amqp", cli.Mail.Transport)
		require.Equal(t, []string{"sales@example.com"}, cli.Mail.To)
	})

	t.Run("empty file", func(t *testing.T) {
		cli := parse(t, "")
		require.False(t, cli.Debug)
		require.Equal(t, 168*time.Hour, cli.SessionTTL)
	})
}

func TestYAML_invalid(t *testing.T) {
	_, err := YAML(strings.NewReader("debug: [unterminated"))
	require.ErrorContains(t, err, "failed to parse YAML config")
}

