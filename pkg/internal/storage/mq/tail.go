package mq

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Handler 处理一条订阅到的消息，返回错误时消息被 Nack 且 Tail 结束.
type Handler func(topic string, msg *message.Message) error

type delivery struct {
	topic string
	msg   *message.Message
}

// Tail 订阅多个主题，把消息逐条交给 fn，fn 成功后 Ack.
// ctx 结束时返回 nil.
func (c *Client) Tail(ctx context.Context, topics []string, fn Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan delivery)

	var wg sync.WaitGroup

	for _, topic := range topics {
		ch, err := c.Subscribe(ctx, topic)
		if err != nil {
			return err
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			for msg := range ch {
				select {
				case in <- delivery{topic: topic, msg: msg}:
				case <-ctx.Done():
					msg.Nack()
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(in)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-in:
			if !ok {
				return nil
			}

			if ctx.Err() != nil {
				d.msg.Nack()
				return nil
			}

			if err := fn(d.topic, d.msg); err != nil {
				d.msg.Nack()
				return err
			}

			d.msg.Ack()
		}
	}
}
