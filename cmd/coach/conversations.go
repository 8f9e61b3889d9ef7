package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/leadership-coach/internal/model"
)

func newConversationsCmd() *cobra.Command {
	var (
		topic   string
		search  string
		status  string
		starred bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List saved conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := model.ConversationFilter{
				Topic:  topic,
				Search: search,
				Status: model.ConversationStatus(status),
				Limit:  limit,
			}
			if cmd.Flags().Changed("starred") {
				filter.Starred = &starred
			}

			resp, err := newClient().ListConversations(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTOPIC\tMESSAGES\tSTATUS\tSTARRED\tUPDATED")
			for _, c := range resp.Conversations {
				star := ""
				if c.IsStarred {
					star = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					c.ID, c.Topic, c.MessageCount, c.Status, star, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if resp.HasMore {
				fmt.Println(dimStyle.Render(fmt.Sprintf("showing %d of %d", len(resp.Conversations), resp.Total)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "only this topic")
	cmd.Flags().StringVar(&search, "search", "", "text to search for")
	cmd.Flags().StringVar(&status, "status", "", "active or archived")
	cmd.Flags().BoolVar(&starred, "starred", false, "only starred (or, with =false, only unstarred)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}
