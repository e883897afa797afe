package smoke

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/cmd/util"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SmokeCmd represents the basic protocol smoke test: write three keys,
// read each one back and expect an exact match. The bulk verbs (keys,
// reads) are probed too but degrade to skipped when unsupported.
var SmokeCmd = &cobra.Command{
	Use:     "smoke",
	Short:   "Run a basic protocol smoke test against a running server",
	Args:    cobra.NoArgs,
	PreRunE: setup,
	RunE:    run,
}

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupClientFlags(SmokeCmd)
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

	probe := client.New(*cfg)
	defer probe.Disconnect()

	failures := 0

	// Write and read back three keys, expecting exact matches
	for i := 1; i <= 3; i++ {
		key := fmt.Sprintf("test:%d", i)
		value := fmt.Sprintf("value_%d", i)

		resp, err := probe.Write(key, value)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		if proto.IsError(resp) {
			fmt.Printf("FAIL  write %s rejected\n", key)
			failures++
			continue
		}

		got, err := probe.Read(key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if got != value {
			fmt.Printf("FAIL  read %s: got %q, want %q\n", key, got, value)
			failures++
			continue
		}
		fmt.Printf("OK    %s = %q\n", key, got)
	}

	// Status is mandatory
	status, err := probe.Status()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	fmt.Printf("OK    status: %q\n", status)

	// Bulk verbs are optional: the sentinel means skipped, not failed
	if resp, err := probe.Keys(); err != nil {
		return fmt.Errorf("keys: %w", err)
	} else if proto.IsError(resp) {
		fmt.Println("SKIP  keys verb not supported")
	} else {
		fmt.Printf("OK    keys: %d entries\n", len(proto.SplitList(resp)))
	}

	if resp, err := probe.Reads("test:"); err != nil {
		return fmt.Errorf("reads: %w", err)
	} else if proto.IsError(resp) {
		fmt.Println("SKIP  reads verb not supported")
	} else {
		fmt.Printf("OK    reads: %d values\n", len(proto.SplitList(resp)))
	}

	if failures > 0 {
		return fmt.Errorf("smoke test failed (%d failures)", failures)
	}
	fmt.Println("\nsmoke test passed")
	return nil
}
