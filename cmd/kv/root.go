package kv

import (
	"github.com/ValentinKolb/kvprobe/cmd/util"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	probe *client.Client

	// KeyValueCommands represents the KV command group: every protocol
	// verb as a one-shot CLI operation.
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform one-shot protocol operations",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(writeCmd)
	KeyValueCommands.AddCommand(readCmd)
	KeyValueCommands.AddCommand(deleteCmd)
	KeyValueCommands.AddCommand(statusCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(readsCmd)
}

// setupClient initializes the protocol client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	common.InitLoggers(viper.GetString("log-level"))

	// Create the client; it connects lazily on the first command
	probe = client.New(*util.GetClientConfig())
	return nil
}
