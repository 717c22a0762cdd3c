package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/psanodiya94/gocommon/pkg/cmdutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/mqutil"
)

func newMessagingCommand(app *app) *cobra.Command {
	cmd := cmdutil.New("messaging", "Message queue operations")

	cmd.AddCommand(cmdutil.New("test", "Test queue manager connection",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return app.withMessaging(ctx, func(ctx context.Context, mq mqutil.Manager) error {
				if err := mq.Ping(ctx); err != nil {
					return err
				}
				fmt.Println("Queue manager connection OK")
				return nil
			})
		}),
	))

	var properties string
	put := cmdutil.New("put", "Put a message on a queue",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			msg := mqutil.TextMessage(args[1])
			if properties != "" {
				if err := json.Unmarshal([]byte(properties), &msg.Properties); err != nil {
					return errutil.Wrap(errutil.Validation, "properties must be a JSON object", err)
				}
			}
			return app.withMessaging(ctx, func(ctx context.Context, mq mqutil.Manager) error {
				if err := mq.Put(ctx, args[0], msg); err != nil {
					return err
				}
				fmt.Printf("Message put to %s\n", args[0])
				return nil
			})
		}),
	)
	put.Flags().StringVarP(&properties, "properties", "p", "",
		"message properties as a JSON object")
	put.Args = cobra.ExactArgs(2)
	cmd.AddCommand(put)

	var timeout int
	get := cmdutil.New("get", "Get a message from a queue",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return app.withMessaging(ctx, func(ctx context.Context, mq mqutil.Manager) error {
				msg, err := mq.Get(ctx, args[0], time.Duration(timeout)*time.Second)
				if err != nil {
					return err
				}
				if msg == nil {
					fmt.Println("No message available")
					return nil
				}

				fmt.Println(msg.Text())
				renderJSON(msg.Properties)
				return nil
			})
		}),
	)
	get.Flags().IntVarP(&timeout, "timeout", "t", 0,
		"seconds to wait for a message (0 uses the configured timeout)")
	get.Args = cobra.ExactArgs(1)
	cmd.AddCommand(get)

	depth := cmdutil.New("depth", "Show queue depth",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return app.withMessaging(ctx, func(ctx context.Context, mq mqutil.Manager) error {
				depth, err := mq.QueueDepth(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d message(s)\n", args[0], depth)
				return nil
			})
		}),
	)
	depth.Args = cobra.ExactArgs(1)
	cmd.AddCommand(depth)

	return cmd
}

func (a *app) withMessaging(ctx context.Context, fn func(ctx context.Context, mq mqutil.Manager) error) error {
	cfg, log, err := a.setup()
	if err != nil {
		return err
	}

	mq, err := a.messaging(cfg, log)
	if err != nil {
		return err
	}

	if err := mq.Connect(ctx); err != nil {
		return err
	}
	defer mq.Disconnect(ctx)

	return fn(ctx, mq)
}
