package cmd

import (
	"fmt"
	"os"

	"github.com/emberlab/gasvault/cmd/ds"
	"github.com/emberlab/gasvault/cmd/ingest"
	"github.com/emberlab/gasvault/cmd/perf"
	"github.com/emberlab/gasvault/cmd/util"
	"github.com/emberlab/gasvault/lib/logging"
	"github.com/emberlab/gasvault/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "gasvault",
		Short: "versioned storage for greenhouse gas observations",
		Long: fmt.Sprintf(`gasvault (v%s)

A versioned storage engine for greenhouse gas observation time series.
Measurement files are parsed, validated and routed to per-series
Datasources with overlap-aware version control.`, Version),
		PersistentPreRunE: setup,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gasvault",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gasvault v%s\n", Version)
		},
	}
	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "List the registered data types",
		Run: func(cmd *cobra.Command, args []string) {
			for _, dt := range store.DataTypes() {
				fmt.Println(dt)
			}
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(ingest.IngestCmd)
	RootCmd.AddCommand(ds.DatasourceCommands)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(typesCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "engine"
	RootCmd.PersistentFlags().String(key, "local", util.WrapString("object store engine to use (local, memory)"))
	key = "store-path"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("root directory of the local engine"))
	key = "bucket"
	RootCmd.PersistentFlags().String(key, "gasvault", util.WrapString("bucket to store objects in"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warning", util.WrapString("log level (debug, info, warning, error, critical)"))
}

// setup binds flags, initializes logging and registers the built-in data
// types before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	logging.InitLoggers(viper.GetString("log-level"))
	return store.RegisterBuiltins()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
