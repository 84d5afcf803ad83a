package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/cocobologroup/seatsync/internal/events"
	"github.com/cocobologroup/seatsync/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch [collection]",
	Short:   "Stream document changes as they happen",
	GroupID: "docs",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var topics []string
		if len(args) == 1 {
			topics = []string{events.CollectionTopic(args[0])}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		ch, err := docsClient.Watch(ctx, topics)
		if err != nil {
			return err
		}

		for evt := range ch {
			var change events.DocChange
			if err := json.Unmarshal(evt.Data, &change); err != nil {
				continue
			}
			if jsonOutput {
				printJSON(change)
				continue
			}
			fmt.Printf("%s  %s %s/%s\n",
				ui.RenderMuted(change.At.Format("15:04:05")),
				change.Kind, change.Collection, change.ID)
		}
		return nil
	},
}
