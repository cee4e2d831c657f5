package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/estate-bot/internal/client"
	"github.com/evcraddock/estate-bot/internal/conversation"
)

func newChatCmd() *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant",
		Long: `Send a message to the assistant. Without arguments an interactive
session starts: type messages, press a button with "#n", quit with Ctrl-D.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := getUserID()
			if err != nil {
				return err
			}
			s := &chatSession{
				client: newAPIClient(),
				userID: userID,
				out:    cmd.OutOrStdout(),
			}

			switch {
			case voice != "":
				return s.sendVoice(cmd, voice)
			case len(args) > 0:
				return s.send(cmd, strings.Join(args, " "))
			}
			return s.repl(cmd, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "send an audio file as a voice message")

	return cmd
}

type chatSession struct {
	client  *client.Client
	userID  int64
	out     io.Writer
	buttons []conversation.Button
}

// repl reads one message per line until EOF.
func (s *chatSession) repl(cmd *cobra.Command, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			if err := s.send(cmd, line); err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	fmt.Fprintln(s.out)
	return scanner.Err()
}

// send delivers a line, treating "#n" as a press of button n from the
// previous reply.
func (s *chatSession) send(cmd *cobra.Command, line string) error {
	var (
		reply *conversation.Reply
		err   error
	)
	if n, ok := buttonRef(line); ok {
		if n > len(s.buttons) {
			return fmt.Errorf("no button #%d", n)
		}
		reply, err = s.client.Action(cmd.Context(), s.userID, s.buttons[n-1].Data)
	} else {
		reply, err = s.client.Chat(cmd.Context(), s.userID, line)
	}
	if err != nil {
		return err
	}
	return s.show(reply)
}

func (s *chatSession) sendVoice(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening audio: %w", err)
	}
	defer func() { _ = f.Close() }()

	reply, err := s.client.Voice(cmd.Context(), s.userID, filepath.Base(path), f)
	if err != nil {
		return err
	}
	return s.show(reply)
}

func (s *chatSession) show(reply *conversation.Reply) error {
	if isJSON() {
		s.buttons = nil
		for _, m := range reply.Messages {
			for _, row := range m.Buttons {
				s.buttons = append(s.buttons, row...)
			}
		}
		return printJSON(s.out, reply)
	}
	s.buttons = printReply(s.out, reply)
	return nil
}

// buttonRef parses "#n" with n >= 1.
func buttonRef(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
