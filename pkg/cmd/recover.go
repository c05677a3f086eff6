package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/filerelay/pkg/configs"
	"github.com/yeisme/filerelay/pkg/internal/mirror"
	"github.com/yeisme/filerelay/pkg/internal/storage/s3"
)

// objectSource 对象存储镜像的读取接口.
type objectSource interface {
	Concat(ctx context.Context, prefix string) (io.Reader, error)
}

// openObjectSource 连接对象存储镜像.
var openObjectSource = func(ctx context.Context, cfg configs.ObjectMirrorConfig) (objectSource, error) {
	cli, err := s3.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return cli, nil
}

// objectPrefix 对象存储中某个 id 的镜像位于 <prefix><id>/ 下，id 为空时读取全部.
func objectPrefix(base, id string) string {
	if id == "" {
		return base
	}

	return base + id + "/"
}

var (
	recoverInput      string
	recoverID         string
	recoverFromObject bool

	recoverCmd = &cobra.Command{
		Use:   "recover",
		Short: "rebuild file records from a mirror journal or a channel export",
		Long: `recover scans a mirror source and prints the recovered records as JSON.

Sources: the local mirror journal, a Telegram Desktop result.json export of the
log channel, or the object storage mirror (--from-object). Journal and export
files can also be posted to /api/v1/files/import on a running instance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()

			switch {
			case recoverFromObject:
				cfg := configs.GetConfig().Mirror.Object

				src, err := openObjectSource(cmd.Context(), cfg)
				if err != nil {
					return err
				}

				if r, err = src.Concat(cmd.Context(), objectPrefix(cfg.Prefix, recoverID)); err != nil {
					return err
				}
			case recoverInput != "" && recoverInput != "-":
				f, err := os.Open(recoverInput)
				if err != nil {
					return err
				}

				defer f.Close()

				r = f
			}

			var out any

			if recoverID != "" {
				rec, err := mirror.Scan(r, recoverID)
				if err != nil {
					return err
				}

				out = rec
			} else {
				recs, err := mirror.ScanAll(r)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "recovered %d records\n", len(recs))

				out = recs
			}

			b, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal records: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerRecoverCommand 注册恢复命令.
func registerRecoverCommand() {
	recoverCmd.Flags().StringVarP(&recoverInput, "input", "i", "-", "journal or result.json path, - for stdin")
	recoverCmd.Flags().StringVar(&recoverID, "id", "", "recover a single link id")
	recoverCmd.Flags().BoolVar(&recoverFromObject, "from-object", false, "read the object storage mirror instead of --input")

	rootCmd.AddCommand(recoverCmd)
}
