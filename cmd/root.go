package cmd

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/cmd/kv"
	"github.com/ValentinKolb/kvprobe/cmd/load"
	"github.com/ValentinKolb/kvprobe/cmd/persist"
	"github.com/ValentinKolb/kvprobe/cmd/smoke"
	"github.com/ValentinKolb/kvprobe/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvprobe",
		Short: "correctness and durability harness for key-value servers",
		Long: fmt.Sprintf(`kvprobe (v%s)

A correctness and performance test harness for line-protocol
key-value servers, including load generation and durability
runs across a server process restart.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvprobe",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvprobe v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(smoke.SmokeCmd)
	RootCmd.AddCommand(load.LoadCmd)
	RootCmd.AddCommand(persist.PersistCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level to use (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
