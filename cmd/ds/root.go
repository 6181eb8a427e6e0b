package ds

import (
	"fmt"

	"github.com/emberlab/gasvault/cmd/util"
	"github.com/emberlab/gasvault/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// DatasourceCommands represents the datasource command group
	DatasourceCommands = &cobra.Command{
		Use:   "ds",
		Short: "Inspect and manage stored datasources",
	}
)

func init() {
	// Add Flags
	DatasourceCommands.PersistentFlags().String("data-type", "surface", util.WrapString("data type of the store to operate on (see gasvault types)"))

	// Add subcommands
	DatasourceCommands.AddCommand(searchCmd)
	DatasourceCommands.AddCommand(infoCmd)
	DatasourceCommands.AddCommand(listCmd)
	DatasourceCommands.AddCommand(deleteCmd)
}

// openStore builds the store for the selected data type from the global
// engine configuration
func openStore(cmd *cobra.Command) (*store.Store, error) {
	if err := util.BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	objects, err := util.GetObjectStore()
	if err != nil {
		return nil, err
	}
	return store.NewStore(viper.GetString("data-type"), objects, util.GetBucket())
}

func printMetadata(meta map[string]string) {
	for _, k := range sortedKeys(meta) {
		fmt.Printf("  %s: %s\n", k, meta[k])
	}
}
