package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/leadership-coach/internal/client"
	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/reconstruct"
)

type chatOptions struct {
	topic          string
	conversationID string
	save           bool
	noStream       bool
}

func newChatCmd() *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Start or continue a coaching conversation",
		Long: "Without a message argument, chat reads messages line by line from the terminal.\n" +
			"When stdin is not a terminal, all of stdin is sent as a single message.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "self-awareness", "coaching topic")
	cmd.Flags().StringVarP(&opts.conversationID, "conversation", "c", "", "continue a saved conversation")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist completed turns (requires --token)")
	cmd.Flags().BoolVar(&opts.noStream, "no-stream", false, "use the non-streaming endpoint")
	return cmd
}

type session struct {
	api     *client.Client
	opts    *chatOptions
	history []model.Message
	out     io.Writer
}

func runChat(ctx context.Context, opts *chatOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{api: newClient(), opts: opts, out: os.Stdout}

	if opts.conversationID != "" {
		conv, err := s.api.GetConversation(ctx, opts.conversationID)
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}
		s.history = conv.Messages
		s.opts.topic = conv.Topic
		fmt.Fprintln(s.out, dimStyle.Render(fmt.Sprintf("continuing %q (%d messages)", conv.Topic, conv.MessageCount)))
	}

	if len(args) > 0 {
		return s.turn(ctx, strings.Join(args, " "))
	}

	if !interactive() {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return s.turn(ctx, strings.TrimSpace(string(data)))
	}

	fmt.Fprintln(s.out, dimStyle.Render("topic: "+opts.topic+"  (ctrl-d to quit)"))
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		fmt.Fprint(s.out, userStyle.Render("you")+": ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := s.turn(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintln(s.out, errorStyle.Render(err.Error()))
		}
	}
}

// turn sends one message and, when the reply completed, records both sides.
func (s *session) turn(ctx context.Context, text string) error {
	if text == "" {
		return errors.New("message is empty")
	}

	req := &model.ChatRequest{
		Message:             text,
		Topic:               s.opts.topic,
		ConversationHistory: model.ToTurns(s.history),
	}
	user := model.Message{Sender: model.SenderUser, Text: text}

	var (
		reply     string
		completed bool
	)
	if s.opts.noStream {
		resp, err := s.api.Chat(ctx, req)
		if resp != nil {
			fmt.Fprintln(s.out, coachStyle.Render("coach")+": "+resp.Message)
		}
		if err != nil {
			return err
		}
		reply, completed = resp.Message, true
	} else {
		printer := &streamPrinter{out: s.out}
		rec := reconstruct.New(reconstruct.WithObserver(printer.update))
		res, err := s.api.StreamChat(ctx, req, rec)
		printer.finish(res)
		if err != nil {
			return err
		}
		reply, completed = res.Text, res.Completed && res.Error == ""
	}

	if !completed || reply == "" {
		// The turn is not recorded; the next request will not include it.
		return nil
	}

	ai := model.Message{Sender: model.SenderAI, Text: reply}
	s.history = append(s.history, user, ai)

	if s.opts.save {
		return s.persist(ctx, user, ai)
	}
	return nil
}

func (s *session) persist(ctx context.Context, user, ai model.Message) error {
	if s.opts.conversationID == "" {
		conv, err := s.api.CreateConversation(ctx, &model.CreateConversationRequest{
			Topic:    s.opts.topic,
			Messages: []model.Message{user, ai},
		})
		if err != nil {
			return fmt.Errorf("failed to save conversation: %w", err)
		}
		s.opts.conversationID = conv.ID
		s.history = conv.Messages
		fmt.Fprintln(s.out, dimStyle.Render("saved as "+conv.ID))
		return nil
	}

	conv, err := s.api.AppendTurn(ctx, s.opts.conversationID, &model.AppendTurnRequest{
		Messages: []model.Message{user, ai},
	})
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	s.history = conv.Messages
	return nil
}
