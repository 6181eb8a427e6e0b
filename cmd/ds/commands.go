package ds

import (
	"fmt"
	"sort"

	"github.com/emberlab/gasvault/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	searchCmd = &cobra.Command{
		Use:   "search [key=value...]",
		Short: "Find datasources by metadata",
		Long: util.WrapString("Lists every datasource whose index entry contains all given " +
			"key=value pairs. Without arguments, all datasources of the data type are listed."),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			query, err := util.ParsePairs(args)
			if err != nil {
				return err
			}
			records, err := s.Search(query)
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Println(rec.UUID)
				printMetadata(rec.Metadata)
			}
			fmt.Printf("%d datasource(s)\n", len(records))
			return nil
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info [uuid]",
		Short: "Show a datasource's metadata, versions and segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			d, err := s.Datasource(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("uuid: %s\n", d.UUID)
			fmt.Printf("data type: %s\n", d.DataType)
			fmt.Printf("latest version: %s\n", d.LatestVersion)
			fmt.Println("metadata:")
			printMetadata(d.Metadata)
			for _, v := range d.Versions() {
				fmt.Printf("version %s:\n", v)
				for _, seg := range d.Segments(v) {
					fmt.Printf("  %s\n", seg)
				}
			}
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the UUIDs of all datasources in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			uuids, err := s.Datasources()
			if err != nil {
				return err
			}
			for _, id := range uuids {
				fmt.Println(id)
			}
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [uuid]",
		Short: "Delete a datasource, its data and its index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd)
			if err != nil {
				return err
			}
			if !viper.GetBool("yes") {
				return fmt.Errorf("deletion is permanent, re-run with --yes to confirm")
			}
			if err := s.DeleteDatasource(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
)

func init() {
	deleteCmd.Flags().Bool("yes", false, util.WrapString("confirm the deletion"))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
