package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/filerelay/pkg/internal/linkcodec"
)

var (
	linkAt  string
	linkBot string

	linkCmd = &cobra.Command{
		Use:   "link",
		Short: "share link helpers",
	}

	linkEncodeCmd = &cobra.Command{
		Use:   "encode <file_handle>",
		Short: "derive the link id for a file handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()

			if linkAt != "" {
				t, err := time.Parse(time.RFC3339, linkAt)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}

				at = t
			}

			id := linkcodec.Encode(args[0], at)

			fmt.Fprintln(cmd.OutOrStdout(), id)

			if linkBot != "" {
				fmt.Fprintln(cmd.OutOrStdout(), linkcodec.ShareLink(linkBot, id))
			}

			return nil
		},
	}

	linkDecodeCmd = &cobra.Command{
		Use:   "decode <start_parameter>",
		Short: "extract the link id from a /start parameter such as file_1a2b3c4d",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := linkcodec.Decode(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)

			return nil
		},
	}
)

// registerLinkCommands 注册链接相关命令.
func registerLinkCommands() {
	linkEncodeCmd.Flags().StringVar(&linkAt, "at", "", "upload time in RFC3339, defaults to now")
	linkEncodeCmd.Flags().StringVar(&linkBot, "bot", "", "bot username, prints the full share link when set")

	linkCmd.AddCommand(linkEncodeCmd)
	linkCmd.AddCommand(linkDecodeCmd)

	rootCmd.AddCommand(linkCmd)
}
