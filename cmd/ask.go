package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/spf13/cobra"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a grounded question about your indexed documents",
	Long: `Ask runs one question through the retrieval agent and prints the
answer. Output streams as it is generated.

Without --session a new session is created; its ID is printed to stderr
so a follow-up question can continue the conversation:

  retriva ask --session <id> "and how does that interact with Y?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID to continue a conversation")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, err := a.Agent.EnsureSession(ctx, askSession)
	if err != nil {
		return err
	}
	if askSession == "" {
		fmt.Fprintf(os.Stderr, "session: %s\n", sessionID)
	}

	// Stream chunks to stdout as they arrive. The final response is also
	// returned in full, but printing it again would duplicate the output.
	streamed := false
	resp, err := a.Agent.ExecuteStream(ctx, sessionID, question,
		func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			if chunk == nil {
				return nil
			}
			for _, part := range chunk.Content {
				if part.Text != "" {
					streamed = true
					fmt.Print(part.Text)
				}
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	if streamed {
		fmt.Println()
	} else {
		fmt.Println(resp.FinalText)
	}
	return nil
}
