package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/app"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/assistant"
)

const (
	cmdChangeCategory = ":c"
	cmdQuit           = ":q"
)

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question, or start an interactive session without arguments",
		Long: `Ask matches the question against the reference table and answers from it
when the confidence score clears the threshold; otherwise the generative
fallback answers.

Without a question argument, ask starts an interactive session with a
category picker. Type :c to change category and :q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rt, err := app.NewRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			ui := NewUI(cmd.InOrStdin(), cmd.OutOrStdout(), outputJSON)
			session := rt.Service.NewSession()
			if category != "" {
				if err := session.SelectCategory(category); err != nil {
					return err
				}
			}

			if len(args) > 0 {
				return askOnce(ctx, ui, session, strings.Join(args, " "))
			}
			return askInteractive(ctx, ui, rt.Service, session)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "restrict matching to one category (default: All)")

	return cmd
}

func askOnce(ctx context.Context, ui *UI, session *assistant.Session, query string) error {
	resp, err := ask(ctx, ui, session, query)
	if err != nil {
		return err
	}
	if outputJSON {
		printJSON(ui.out, resp)
		return nil
	}
	renderResponse(ui, resp)
	return nil
}

func askInteractive(ctx context.Context, ui *UI, svc *assistant.Service, session *assistant.Session) error {
	ui.Section("FAQ assistant")
	if err := pickCategory(ctx, ui, svc, session); err != nil {
		return endOfSession(err)
	}

	for {
		input, err := ui.Prompt(ctx, fmt.Sprintf("[%s] Ask a question (%s change category, %s quit)",
			session.Category(), cmdChangeCategory, cmdQuit))
		if err != nil {
			return endOfSession(err)
		}

		switch input {
		case "":
			continue
		case cmdQuit:
			return nil
		case cmdChangeCategory:
			if err := pickCategory(ctx, ui, svc, session); err != nil {
				return endOfSession(err)
			}
			continue
		}

		resp, err := ask(ctx, ui, session, input)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			ui.Error("%v", err)
			continue
		}
		if outputJSON {
			printJSON(ui.out, resp)
		} else {
			renderResponse(ui, resp)
		}
	}
}

func pickCategory(ctx context.Context, ui *UI, svc *assistant.Service, session *assistant.Session) error {
	categories := svc.Categories()
	current := 0
	for i, c := range categories {
		if c == session.Category() {
			current = i
		}
	}

	idx, err := ui.PromptChoice(ctx, "Choose a category:", categories, current)
	if err != nil {
		return err
	}
	return session.SelectCategory(categories[idx])
}

func ask(ctx context.Context, ui *UI, session *assistant.Session, query string) (*assistant.Response, error) {
	spin := ui.NewSpinner("Thinking...")
	spin.Start()
	defer spin.Stop()

	return session.Ask(ctx, query)
}

func renderResponse(ui *UI, resp *assistant.Response) {
	fmt.Fprintln(ui.out)
	switch resp.Outcome {
	case assistant.OutcomeMatched:
		ui.Success("%s", resp.Answer)
		ui.KeyValue("Matched question", resp.MatchedQuestion)
	case assistant.OutcomeGenerated:
		ui.Info("%s", resp.Answer)
		if resp.Cached {
			ui.KeyValue("Source", "generated (cached)")
		} else {
			ui.KeyValue("Source", "generated")
		}
	case assistant.OutcomeNoCandidates:
		ui.Warning("%s", resp.Answer)
	case assistant.OutcomeFallbackFailed:
		ui.Error("%s", resp.Answer)
		ui.KeyValue("Reference", resp.ID)
	}
	if resp.Outcome != assistant.OutcomeNoCandidates {
		ui.KeyValue("Confidence Score", fmt.Sprintf("%d%%", resp.Score))
	}
	fmt.Fprintln(ui.out)
}

// endOfSession treats closed input and Ctrl-C as a normal exit.
func endOfSession(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
