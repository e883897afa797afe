package load

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/cmd/util"
	"github.com/ValentinKolb/kvprobe/harness/load"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"net/http"
)

// LoadCmd represents the load command: bulk write/read workloads over one
// or many connections, optionally comparing the bulk-read verb against
// single reads.
var LoadCmd = &cobra.Command{
	Use:     "load",
	Short:   "Run bulk write/read workloads against a running server",
	Args:    cobra.NoArgs,
	PreRunE: setup,
	RunE:    run,
}

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupClientFlags(LoadCmd)

	// Add Flags
	key := "records"
	LoadCmd.Flags().Int(key, 10000, util.WrapString("Number of records per connection"))

	key = "connections"
	LoadCmd.Flags().Int(key, 1, util.WrapString("Number of parallel connections, each over its own disjoint keyspace"))

	key = "rate"
	LoadCmd.Flags().Int(key, 0, util.WrapString("Per-connection operation rate cap in ops/sec (0 = unlimited)"))

	key = "prefix"
	LoadCmd.Flags().String(key, "load", util.WrapString("Key prefix of the run"))

	key = "bulk-read"
	LoadCmd.Flags().Bool(key, false, util.WrapString("Compare the reads verb against the equivalent number of single reads"))

	key = "metrics-listen"
	LoadCmd.Flags().String(key, "", util.WrapString("Optional listen address for a Prometheus metrics endpoint during the run (e.g. :9090)"))
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	common.InitLoggers(viper.GetString("log-level"))
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	cfg := util.GetClientConfig()
	fmt.Println(cfg.String())

	// Optional metrics endpoint, alive for the duration of the run
	if addr := viper.GetString("metrics-listen"); addr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				load.Logger.Warningf("metrics endpoint: %v", err)
			}
		}()
	}

	records := viper.GetInt("records")
	prefix := viper.GetString("prefix")

	// Bulk-read comparison mode
	if viper.GetBool("bulk-read") {
		probe := client.New(*cfg)
		defer probe.Disconnect()

		result, err := load.CompareBulkRead(probe, prefix, records, 1)
		if err != nil {
			return err
		}
		fmt.Println(result.String())
		return nil
	}

	// Sequential mode
	if conns := viper.GetInt("connections"); conns <= 1 {
		probe := client.New(*cfg)
		defer probe.Disconnect()

		result := load.NewGenerator(probe, load.GeneratorConfig{
			Records:    records,
			Prefix:     prefix,
			RatePerSec: viper.GetInt("rate"),
		}).Run()

		fmt.Println(result.String())
		if !result.Passed() {
			return fmt.Errorf("load run failed")
		}
		return nil
	}

	// Concurrent mode
	results := load.NewCoordinator(load.CoordinatorConfig{
		Client:         *cfg,
		Connections:    viper.GetInt("connections"),
		RecordsPerConn: records,
		Prefix:         prefix,
		RatePerSec:     viper.GetInt("rate"),
	}).Run()

	fmt.Println(load.Summarize(results))
	for _, r := range results {
		if !r.Passed() {
			return fmt.Errorf("load run failed on connection %d", r.ConnID)
		}
	}
	return nil
}
