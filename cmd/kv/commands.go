package kv

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"github.com/spf13/cobra"
)

var (
	writeCmd = &cobra.Command{
		Use:   "write [key] [value]",
		Short: "Writes the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := probe.Write(args[0], args[1])
			if err != nil {
				return err
			}
			if proto.IsError(resp) {
				return fmt.Errorf("server rejected write for key %q", args[0])
			}
			fmt.Println(resp)
			return nil
		},
	}
	readCmd = &cobra.Command{
		Use:   "read [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := probe.Read(args[0])
			if err != nil {
				return err
			}
			if proto.IsError(resp) {
				return fmt.Errorf("key %q not found", args[0])
			}
			fmt.Println(resp)
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := probe.Delete(args[0])
			if err != nil {
				return err
			}
			if proto.IsError(resp) {
				return fmt.Errorf("key %q not found", args[0])
			}
			fmt.Println(resp)
			return nil
		},
	}
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Prints the server status string",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := probe.Status()
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := probe.Keys()
			if err != nil {
				return err
			}
			if proto.IsError(resp) {
				return fmt.Errorf("server does not support the keys verb")
			}
			for _, k := range proto.SplitList(resp) {
				fmt.Println(k)
			}
			return nil
		},
	}
	readsCmd = &cobra.Command{
		Use:   "reads [prefix]",
		Short: "Reads all values whose keys share a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := probe.Reads(args[0])
			if err != nil {
				return err
			}
			if proto.IsError(resp) {
				return fmt.Errorf("server does not support the reads verb (or no keys match %q)", args[0])
			}
			for _, v := range proto.SplitList(resp) {
				fmt.Println(v)
			}
			return nil
		},
	}
)
