package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"db-move/internal/engine"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
source:
  driver: sqlserver
  host: mssql.internal
  port: 1433
  database: Sales
  user: migrator
  password: pw
target:
  driver: postgres
  host: pg.internal
  database: sales
  user: app
  schema: public
migration:
  batch_size: 500
  exclude_tables: [__EFMigrationsHistory, sysdiagrams]
  skip_data_tables: [AuditLog]
  on_error: continue
  table_order: dependency
notify:
  webhook:
    enabled: true
    url: https://hooks.example.com/abc
  email:
    enabled: true
    host: mail.example.com
    from: ops@example.com
    to: [dba@example.com]
`

func loadSample(t *testing.T, content string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db-move.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("DBMOVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	require.NoError(t, v.ReadInConfig())
	return v
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DBMOVE_TARGET_PASSWORD", "from-env")
	cfg, err := LoadConfig(loadSample(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "sqlserver", cfg.Source.Driver)
	assert.Equal(t, 1433, cfg.Source.Port)
	assert.Equal(t, "from-env", cfg.Target.Password)
	assert.Equal(t, "public", cfg.Target.Schema)

	job := cfg.Job()
	assert.Equal(t, 500, job.BatchSize)
	assert.Equal(t, []string{"__EFMigrationsHistory", "sysdiagrams"}, job.ExcludeTables)
	assert.Equal(t, []string{"AuditLog"}, job.SkipDataTables)
	assert.Equal(t, engine.Continue, job.OnError)
	assert.Equal(t, engine.OrderByDependency, job.TableOrder)
	assert.True(t, job.Verify)
	assert.False(t, job.Truncate)
	require.NoError(t, job.Validate())

	notifiers, err := cfg.Notifiers()
	require.NoError(t, err)
	require.Len(t, notifiers, 2)
	assert.Equal(t, "webhook", notifiers[0].Name())
	assert.Equal(t, "email", notifiers[1].Name())
	assert.Equal(t, 587, cfg.Notify.Email.Port)
	assert.Equal(t, "db-move", cfg.Notify.Email.DisplayName)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(loadSample(t, "source:\n  driver: sqlite\n  database: a.db\ntarget:\n  driver: sqlite\n  database: b.db\n"))
	require.NoError(t, err)

	job := cfg.Job()
	assert.Equal(t, engine.DefaultBatchSize, job.BatchSize)
	assert.Equal(t, engine.Abort, job.OnError)
	assert.Equal(t, engine.OrderByName, job.TableOrder)
	assert.Equal(t, "info", cfg.Log.Level)

	notifiers, err := cfg.Notifiers()
	require.NoError(t, err)
	assert.Empty(t, notifiers)
}

func TestLoadConfig_MissingDriver(t *testing.T) {
	_, err := LoadConfig(loadSample(t, "target:\n  driver: sqlite\n  database: b.db\n"))
	assert.ErrorContains(t, err, "source.driver")
}

func TestNotifiers_WebhookWithoutURL(t *testing.T) {
	cfg := &Config{Notify: NotifyConfig{Webhook: WebhookConfig{Enabled: true}}}
	_, err := cfg.Notifiers()
	assert.ErrorContains(t, err, "notify.webhook.url")
}

func TestResultMessage(t *testing.T) {
	cfg := &Config{}
	cfg.Source.Driver = "sqlserver"
	cfg.Target.Driver = "postgres"

	msg := resultMessage(cfg, engine.Result{Success: true, RowsCopied: 7})
	assert.Equal(t, "db-move SUCCESS: sqlserver -> postgres", msg.Subject)
	assert.Contains(t, msg.Body, "Rows copied: 7")

	msg = resultMessage(cfg, engine.Result{})
	assert.Contains(t, msg.Subject, "FAILED")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 24))
	assert.Equal(t, "abcd~", truncate("abcdefgh", 5))
}
