package cmd

import (
	"errors"
	"fmt"

	"db-move/internal/dbconn"
	"db-move/internal/engine"
	"db-move/internal/notify"

	"github.com/spf13/viper"
)

// Config mirrors db-move.yaml.
type Config struct {
	Source    dbconn.Config   `mapstructure:"source"`
	Target    dbconn.Config   `mapstructure:"target"`
	Migration MigrationConfig `mapstructure:"migration"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
}

type MigrationConfig struct {
	BatchSize      int      `mapstructure:"batch_size"`
	ExcludeTables  []string `mapstructure:"exclude_tables"`
	SkipDataTables []string `mapstructure:"skip_data_tables"`
	OnError        string   `mapstructure:"on_error"`
	CreateSchema   bool     `mapstructure:"create_schema"`
	Truncate       bool     `mapstructure:"truncate"`
	Verify         bool     `mapstructure:"verify"`
	TableOrder     string   `mapstructure:"table_order"`
}

type NotifyConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	Email   EmailConfig   `mapstructure:"email"`
}

type WebhookConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
}

type EmailConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	notify.SMTPConfig `mapstructure:",squash"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("migration.batch_size", engine.DefaultBatchSize)
	v.SetDefault("migration.on_error", string(engine.Abort))
	v.SetDefault("migration.table_order", string(engine.OrderByName))
	v.SetDefault("migration.verify", true)
	v.SetDefault("migration.create_schema", false)
	v.SetDefault("migration.truncate", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("notify.webhook.username", "db-move")
	v.SetDefault("notify.email.port", 587)
	v.SetDefault("notify.email.display_name", "db-move")

	// Known keys let AutomaticEnv reach them through Unmarshal.
	for _, side := range []string{"source", "target"} {
		for _, key := range []string{"driver", "dsn", "host", "port", "database", "user", "password", "schema", "sslmode"} {
			v.SetDefault(side+"."+key, "")
		}
	}
}

// LoadConfig decodes the merged flags, environment and config file.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Source.Driver == "" && cfg.Source.DSN == "" {
		return nil, errors.New("source.driver is required (config file, flag or DBMOVE_SOURCE_DRIVER)")
	}
	if cfg.Target.Driver == "" && cfg.Target.DSN == "" {
		return nil, errors.New("target.driver is required (config file, flag or DBMOVE_TARGET_DRIVER)")
	}
	return &cfg, nil
}

// Job builds the engine job for this config.
func (c *Config) Job() engine.Job {
	m := c.Migration
	return engine.Job{
		Source:         c.Source,
		Target:         c.Target,
		ExcludeTables:  m.ExcludeTables,
		SkipDataTables: m.SkipDataTables,
		BatchSize:      m.BatchSize,
		OnError:        engine.OnError(m.OnError),
		CreateSchema:   m.CreateSchema,
		Truncate:       m.Truncate,
		Verify:         m.Verify,
		TableOrder:     engine.TableOrder(m.TableOrder),
	}
}

// Notifiers builds the enabled notification channels.
func (c *Config) Notifiers() ([]notify.Notifier, error) {
	var out []notify.Notifier
	if w := c.Notify.Webhook; w.Enabled {
		if w.URL == "" {
			return nil, errors.New("notify.webhook.url is required when the webhook is enabled")
		}
		out = append(out, notify.NewWebhook(w.URL, w.Username))
	}
	if e := c.Notify.Email; e.Enabled {
		mail, err := notify.NewEmail(e.SMTPConfig)
		if err != nil {
			return nil, fmt.Errorf("notify.email: %w", err)
		}
		out = append(out, mail)
	}
	return out, nil
}
