package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"db-move/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logCloser io.Closer
)

var RootCmd = &cobra.Command{
	Use:   "db-move",
	Short: "Copy tables between database engines",
	Long: `
  ____  ____    __  __  _____     _______
 |  _ \| __ )  |  \/  |/ _ \ \   / / ____|
 | | | |  _ \  | |\/| | | | \ \ / /|  _|
 | |_| | |_) | | |  | | |_| |\ V / | |___
 |____/|____/  |_|  |_|\___/  \_/  |_____|

DB MOVE - batch data migration between PostgreSQL, MySQL, SQL Server, Oracle and SQLite
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := logging.Setup(viper.GetString("log.level"), viper.GetString("log.file"))
		if err != nil {
			return err
		}
		logCloser = closer
		if used := viper.ConfigFileUsed(); used != "" {
			logrus.WithField("component", "cli").Infof("Using config file: %s", used)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running command, which
// still restores target constraints before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-move.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-file", "", "also append logs to this file")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.file", RootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Executable directory first, then the working directory.
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("db-move")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBMOVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config:", err)
			os.Exit(1)
		}
	}
}
