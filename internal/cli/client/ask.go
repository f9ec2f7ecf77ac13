package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the portfolio chatbot a question",
		Long: `Ask the portfolio chatbot a question and stream the answer to stdout.

With no arguments, starts an interactive session that keeps the conversation
history across turns. End the session with Ctrl-D or "exit".`,
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	apiClient, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		question := strings.Join(args, " ")
		_, err := askOnce(cmd, apiClient, nil, question)
		return err
	}

	return runInteractive(cmd, apiClient)
}

// askOnce sends the history plus the new question and streams the answer.
// Returns the full answer text so interactive mode can extend the history.
func askOnce(cmd *cobra.Command, apiClient *APIClient, history []ChatMessage, question string) (string, error) {
	messages := append(append([]ChatMessage{}, history...), ChatMessage{Role: "user", Content: question})

	body, err := apiClient.StreamChat(cmd.Context(), messages)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var answer strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			answer.Write(chunk)
			cmd.OutOrStdout().Write(chunk)
		}
		if err != nil {
			if err != io.EOF {
				return answer.String(), fmt.Errorf("stream interrupted: %w", err)
			}
			break
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())

	return answer.String(), nil
}

func runInteractive(cmd *cobra.Command, apiClient *APIClient) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Interactive session. Ctrl-D or \"exit\" to quit.")

	var history []ChatMessage
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := askOnce(cmd, apiClient, history, question)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}

		history = append(history,
			ChatMessage{Role: "user", Content: question},
			ChatMessage{Role: "assistant", Content: answer},
		)
	}
}
