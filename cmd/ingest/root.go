package ingest

import (
	"fmt"

	"github.com/emberlab/gasvault/cmd/util"
	"github.com/emberlab/gasvault/lib/datasource"
	"github.com/emberlab/gasvault/lib/parser"
	"github.com/emberlab/gasvault/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// IngestCmd reads one or more measurement files into the store
	IngestCmd = &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest measurement files into the store",
		Long: util.WrapString("Parses each file with the selected source format, validates it " +
			"against the data type's schema and assigns the data to the matching Datasources. " +
			"Files are independent: a failing file is reported and the remaining files are " +
			"still processed."),
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}
)

func init() {
	key := "data-type"
	IngestCmd.Flags().String(key, "surface", util.WrapString("data type to ingest into (see gasvault types)"))
	key = "format"
	IngestCmd.Flags().String(key, parser.FormatCSV, util.WrapString("source format of the input files"))
	key = "if-exists"
	IngestCmd.Flags().String(key, string(datasource.PolicyAuto), util.WrapString("overlap policy (auto, new, combine)"))
	key = "new-version"
	IngestCmd.Flags().Bool(key, false, util.WrapString("record the result as a new version"))
	key = "sort"
	IngestCmd.Flags().Bool(key, true, util.WrapString("sort incoming data by time"))
	key = "drop-duplicates"
	IngestCmd.Flags().Bool(key, true, util.WrapString("drop duplicate incoming timestamps"))
	key = "force"
	IngestCmd.Flags().Bool(key, false, util.WrapString("reprocess files whose content hash has been seen before"))
	key = "info"
	IngestCmd.Flags().StringArray(key, nil, util.WrapString("additional metadata as key=value, repeatable. Identity keys reported by the parser cannot be overridden"))
	key = "kwargs"
	IngestCmd.Flags().StringArray(key, nil, util.WrapString("parser hints as key=value, repeatable"))
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	info, err := util.ParsePairs(viper.GetStringSlice("info"))
	if err != nil {
		return err
	}
	kwargs, err := util.ParsePairs(viper.GetStringSlice("kwargs"))
	if err != nil {
		return err
	}

	objects, err := util.GetObjectStore()
	if err != nil {
		return err
	}
	s, err := store.NewStore(viper.GetString("data-type"), objects, util.GetBucket())
	if err != nil {
		return err
	}

	opts := store.IngestOptions{
		IfExists:       datasource.Policy(viper.GetString("if-exists")),
		NewVersion:     viper.GetBool("new-version"),
		Sort:           viper.GetBool("sort"),
		DropDuplicates: viper.GetBool("drop-duplicates"),
		Force:          viper.GetBool("force"),
		Info:           info,
		Kwargs:         kwargs,
	}

	// Files are independent transactions. Report per-file failures and keep
	// going so one malformed file does not block a batch.
	failures := 0
	for _, path := range args {
		results, err := s.ReadFile(path, viper.GetString("format"), opts)
		if err != nil {
			failures++
			fmt.Printf("%s: error: %v\n", path, err)
			continue
		}
		if len(results) == 0 {
			fmt.Printf("%s: already ingested, skipped\n", path)
			continue
		}
		for _, r := range results {
			state := "updated"
			if r.New {
				state = "created"
			}
			fmt.Printf("%s: %s datasource %s (%v)\n", path, state, r.UUID, r.Identity)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(args))
	}
	return nil
}
