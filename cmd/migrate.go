package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"db-move/internal/engine"
	"db-move/internal/notify"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dryRun bool

const notifyTimeout = 30 * time.Second

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every table from source to target",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		notifiers, err := cfg.Notifiers()
		if err != nil {
			return err
		}
		log := logrus.WithField("component", "cli")
		log.Infof("Source: %s", cfg.Source.Masked())
		log.Infof("Target: %s", cfg.Target.Masked())

		job := cfg.Job()
		if dryRun {
			log.Info("[SIMULATION] Dry-Run Mode Active: No data will be written.")
			plan, err := engine.New(job).Plan(cmd.Context())
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		}

		sink, stop := newSink(os.Stdout)
		res := engine.New(job, engine.WithSink(sink)).Run(cmd.Context())
		stop()

		printResult(res)

		if d := notify.NewDispatcher(notifiers...); d.Len() > 0 {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), notifyTimeout)
			defer cancel()
			sent := d.Send(ctx, resultMessage(cfg, res))
			log.Infof("Notified %d of %d channels", sent, d.Len())
		}

		if !res.Success {
			if res.Err != nil {
				return res.Err
			}
			return fmt.Errorf("%d table(s) failed: %v", len(res.FailedTables), res.FailedTables)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)

	f := migrateCmd.Flags()
	f.Int("batch-size", engine.DefaultBatchSize, "rows per page and per insert")
	f.StringSlice("exclude", nil, "tables to leave out entirely (comma-separated)")
	f.StringSlice("skip-data", nil, "tables to migrate schema-only, without rows (comma-separated)")
	f.String("on-error", string(engine.Abort), "table failure policy: abort or continue")
	f.Bool("create-schema", false, "create tables missing on the target")
	f.Bool("truncate", false, "empty each target table before loading it")
	f.String("order", string(engine.OrderByName), "table order: name or dependency")
	f.BoolVar(&dryRun, "dry-run", false, "list the tables and row counts without writing")

	viper.BindPFlag("migration.batch_size", f.Lookup("batch-size"))
	viper.BindPFlag("migration.exclude_tables", f.Lookup("exclude"))
	viper.BindPFlag("migration.skip_data_tables", f.Lookup("skip-data"))
	viper.BindPFlag("migration.on_error", f.Lookup("on-error"))
	viper.BindPFlag("migration.create_schema", f.Lookup("create-schema"))
	viper.BindPFlag("migration.truncate", f.Lookup("truncate"))
	viper.BindPFlag("migration.table_order", f.Lookup("order"))
}

func printPlan(plan []engine.PlanEntry) {
	fmt.Println("🔍 Migration Plan:")
	var rows int64
	for i, e := range plan {
		fmt.Printf("[%02d] %-30s %12d rows  %s\n", i+1, e.Table, e.Rows, e.Action)
		if e.Action != engine.ActionSchemaOnly {
			rows += e.Rows
		}
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Tables: %d, rows to copy: %d\n", len(plan), rows)
}

func printResult(res engine.Result) {
	fmt.Println("\n📊 Summary Report:")
	for i, v := range res.Verification {
		icon := "✓"
		if !v.Matched {
			icon = "!"
		}
		fmt.Printf("[%s] [%02d/%02d] %s\n", icon, i+1, len(res.Verification), v)
	}
	fmt.Println("--------------------------------------------------")
	fmt.Println(res.Summary())
}

func resultMessage(cfg *Config, res engine.Result) notify.Message {
	status := "SUCCESS"
	if !res.Success {
		status = "FAILED"
	}
	return notify.Message{
		Subject: fmt.Sprintf("db-move %s: %s -> %s", status, cfg.Source.Driver, cfg.Target.Driver),
		Body:    res.Summary(),
	}
}
