package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	mq "github.com/yeisme/filerelay/pkg/internal/storage/mq"
	"github.com/yeisme/filerelay/pkg/queue"
)

var (
	tailTopics []string
	tailMax    int

	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Event queue commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered mq types and the relay event topics",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Registered mq types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(out, "   - "+string(t))
			}

			fmt.Fprintln(out, "Event topics:")

			for _, t := range queue.AllTopics() {
				fmt.Fprintln(out, "   - "+t)
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail",
		Short: "print relay events from the queue as JSON lines",
		Long: `tail subscribes to the relay event topics on the configured queue and
prints one JSON object per event until interrupted or --max events were seen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			topics := tailTopics
			if len(topics) == 0 {
				topics = queue.AllTopics()
			}

			return tailEvents(ctx, client, topics, tailMax, cmd.OutOrStdout())
		},
	}
)

// tailLine tail 输出的一行.
type tailLine struct {
	Topic string                        `json:"topic"`
	UUID  string                        `json:"uuid"`
	Event queue.Message[map[string]any] `json:"event"`
}

// tailEvents 打印事件直到 ctx 结束，limit>0 时打印 limit 条后返回.
func tailEvents(ctx context.Context, client *mq.Client, topics []string, limit int, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seen := 0

	return client.Tail(ctx, topics, func(topic string, msg *message.Message) error {
		// 不同主题的负载结构不同，原样输出
		env, err := queue.ParseWatermillMessage[map[string]any](msg)
		if err != nil {
			return fmt.Errorf("decode %s event %s: %w", topic, msg.UUID, err)
		}

		b, err := sonic.Marshal(tailLine{Topic: topic, UUID: msg.UUID, Event: env})
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		fmt.Fprintln(w, string(b))

		if seen++; limit > 0 && seen >= limit {
			cancel()
		}

		return nil
	})
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	mqTailCmd.Flags().StringSliceVarP(&tailTopics, "topic", "t", nil, "topics to follow, defaults to all relay topics")
	mqTailCmd.Flags().IntVarP(&tailMax, "max", "n", 0, "stop after n events, 0 follows forever")

	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTailCmd)
}
