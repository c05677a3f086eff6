package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/storage"
	kv "github.com/yeisme/filerelay/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	kvPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "write and read back a ping key on the configured kv store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mgr, err := storage.Init(ctx)
			if err != nil {
				return err
			}

			defer func() { _ = mgr.Close() }()

			const pingKey = "filerelay.cli.ping"

			start := time.Now()

			if err := mgr.KV.Set(ctx, pingKey, []byte("pong"), time.Minute); err != nil {
				return fmt.Errorf("set ping key: %w", err)
			}

			v, err := mgr.KV.Get(ctx, pingKey)
			if err != nil {
				return fmt.Errorf("get ping key: %w", err)
			}

			_ = mgr.KV.Delete(ctx, pingKey)

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", configs.GetConfig().KV.Type, v, time.Since(start).Round(time.Microsecond))

			return nil
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvPingCmd)
}
