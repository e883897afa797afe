package persist

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/cmd/util"
	"github.com/ValentinKolb/kvprobe/harness/persist"
	"github.com/ValentinKolb/kvprobe/harness/proc"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strconv"
	"time"
)

// Defaults for the positional parameters
const (
	defaultBinary           = "./kvserver"
	defaultWaitBeforeKill   = 2 * time.Second
	defaultWaitBeforeLaunch = 3 * time.Second
	defaultRecords          = 100
)

// PersistCmd represents the durability run: seed the server, delete a
// random fifth of the keys, restart the server process and verify that
// every surviving key reads back its pre-restart value. The process exit
// code reflects the overall pass/fail verdict.
var PersistCmd = &cobra.Command{
	Use:   "persist [port] [binaryPath] [waitBeforeKill] [waitBeforeLaunch] [numRecords]",
	Short: "Run a durability test across a server process restart",
	Long: util.WrapString(
		"Runs the full durability pipeline against the external server binary. " +
			"All parameters are positional with defaults: port 6969, binary ./kvserver, " +
			"waitBeforeKill 2 (seconds), waitBeforeLaunch 3 (seconds), numRecords 100."),
	Args:    cobra.MaximumNArgs(5),
	PreRunE: setup,
	RunE:    run,
}

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupClientFlags(PersistCmd)

	// Add Flags
	key := "state-file"
	PersistCmd.Flags().String(key, "data.db", util.WrapString("The server's on-disk state file, removed before the run for a clean slate"))

	key = "seed"
	PersistCmd.Flags().Int64(key, 0, util.WrapString("Seed for the random key deletion, for reproducible runs (0 = time based)"))
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	common.InitLoggers(viper.GetString("log-level"))
	return nil
}

func run(_ *cobra.Command, args []string) error {
	cfg := util.GetClientConfig()

	// Positional parameters with defaults
	binary := defaultBinary
	waitBeforeKill := defaultWaitBeforeKill
	waitBeforeLaunch := defaultWaitBeforeLaunch
	records := defaultRecords

	var err error
	if len(args) > 0 {
		if cfg.Port, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("port must be a number: %w", err)
		}
	}
	if len(args) > 1 {
		binary = args[1]
	}
	if len(args) > 2 {
		if waitBeforeKill, err = parseSeconds(args[2]); err != nil {
			return fmt.Errorf("waitBeforeKill must be a number of seconds: %w", err)
		}
	}
	if len(args) > 3 {
		if waitBeforeLaunch, err = parseSeconds(args[3]); err != nil {
			return fmt.Errorf("waitBeforeLaunch must be a number of seconds: %w", err)
		}
	}
	if len(args) > 4 {
		if records, err = strconv.Atoi(args[4]); err != nil {
			return fmt.Errorf("numRecords must be a number: %w", err)
		}
	}

	fmt.Println(cfg.String())

	orch := persist.New(
		persist.Config{
			Port:             cfg.Port,
			Records:          records,
			WaitBeforeKill:   waitBeforeKill,
			WaitBeforeLaunch: waitBeforeLaunch,
			StateFile:        viper.GetString("state-file"),
			Seed:             viper.GetInt64("seed"),
		},
		persist.NewLauncher(proc.NewManager(binary)),
		func() persist.Client { return client.New(*cfg) },
	)

	result, runErr := orch.Run()
	fmt.Println(result.String())

	if runErr != nil {
		return runErr
	}
	if !result.Passed() {
		return fmt.Errorf("durability run failed (persistence rate %.2f %%)",
			result.PersistenceRate()*100)
	}
	return nil
}

// parseSeconds converts a positional integer argument to a duration
func parseSeconds(arg string) (time.Duration, error) {
	secs, err := strconv.Atoi(arg)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
