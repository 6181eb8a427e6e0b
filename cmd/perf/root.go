package perf

import (
	"fmt"
	"time"

	"github.com/emberlab/gasvault/cmd/util"
	"github.com/emberlab/gasvault/lib/dataset"
	"github.com/emberlab/gasvault/lib/datasource"
	"github.com/emberlab/gasvault/lib/objectstore/engines/memory"
	"github.com/emberlab/gasvault/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd benchmarks the storage engine with synthetic observation data
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Benchmark the storage engine with synthetic data",
		Long: util.WrapString("Assigns synthetic observation batches to a throwaway " +
			"in-memory store and reports latency percentiles for assignment and fetch."),
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfIterations = 100
	perfPoints     = 1000
	perfSites      = 10
)

func init() {
	// add flags
	key := "iterations"
	PerfCmd.Flags().Int(key, 100, util.WrapString("Number of assignment rounds to run"))
	key = "points"
	PerfCmd.Flags().Int(key, 1000, util.WrapString("Number of data points per batch"))
	key = "sites"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of distinct measurement sites (datasource spread)"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfIterations = viper.GetInt("iterations")
	perfPoints = viper.GetInt("points")
	perfSites = viper.GetInt("sites")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Benchmarking the gasvault storage engine")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Iterations: %d\n", perfIterations)
	fmt.Printf("Points per batch: %d\n", perfPoints)
	fmt.Printf("Sites: %d\n", perfSites)
	fmt.Println()

	s, err := store.NewStore("surface", memory.NewMemoryStore(), "perf")
	if err != nil {
		return err
	}

	registry := gometrics.NewRegistry()
	assignTimer := gometrics.NewRegisteredTimer("assign", registry)
	fetchTimer := gometrics.NewRegisteredTimer("fetch", registry)

	fmt.Println("starting benchmark...")

	// Each round covers a fresh time window so no round trips the overlap
	// guard. Sites cycle, so each datasource accumulates several versions
	// of contiguous data.
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	uuids := make(map[string]string, perfSites)
	for i := 0; i < perfIterations; i++ {
		site := fmt.Sprintf("site%03d", i%perfSites)
		batch := syntheticBatch(base.Add(time.Duration(i)*time.Duration(perfPoints)*time.Minute), perfPoints)
		unit := store.AssignUnit{
			Label: site,
			Data:  batch,
			Metadata: map[string]string{
				"site":            site,
				"species":         "ch4",
				"inlet":           "10m",
				"sampling_period": "60",
			},
		}

		var results []store.IngestResult
		assignTimer.Time(func() {
			results, err = s.AssignData([]store.AssignUnit{unit}, store.IngestOptions{
				IfExists: datasource.PolicyCombine,
				Sort:     true,
			})
		})
		if err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
		uuids[site] = results[0].UUID
	}

	for _, uuid := range uuids {
		var err error
		fetchTimer.Time(func() {
			_, err = s.FetchData(uuid, "")
		})
		if err != nil {
			return err
		}
	}

	fmt.Println()
	printTimer("assign", assignTimer)
	printTimer("fetch", fetchTimer)

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// syntheticBatch builds one minute-resolution batch of fake concentration
// values starting at the given time.
func syntheticBatch(start time.Time, points int) *dataset.Dataset {
	d := dataset.New()
	d.Times = make([]time.Time, points)
	values := make([]float64, points)
	for i := 0; i < points; i++ {
		d.Times[i] = start.Add(time.Duration(i) * time.Minute)
		values[i] = 1800.0 + float64(i%100)*0.25
	}
	d.Columns["ch4"] = values
	return d
}

// printTimer prints a timer's latency distribution in a formatted way
func printTimer(name string, t gometrics.Timer) {
	snap := t.Snapshot()
	if snap.Count() == 0 {
		fmt.Printf("%-10sskipped\n", name)
		return
	}

	ps := snap.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-10scount=%d mean=%s p50=%s p95=%s p99=%s (%.0f ops/sec)\n",
		name,
		snap.Count(),
		time.Duration(int64(snap.Mean())),
		time.Duration(int64(ps[0])),
		time.Duration(int64(ps[1])),
		time.Duration(int64(ps[2])),
		snap.RateMean(),
	)
}
