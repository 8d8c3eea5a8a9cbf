// Package main is the entry point for the cordkit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"cordkit/pkg/config"
	"cordkit/pkg/logger"
	"cordkit/pkg/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cordkit",
	Short: "cordkit - Discord command and component framework",
	Long: `cordkit runs a Discord bot built from declarative command and component
builders. It keeps published application commands in sync with the local
definitions and dispatches interactions to the bound callbacks.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal.
		_ = godotenv.Load()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(versionCmd)
}

// coreModules are shared by every command that builds an fx app.
func coreModules() fx.Option {
	return fx.Options(
		fx.Supply(config.Path(configPath)),
		config.Module,
		logger.Module,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
