// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/lexrag"
	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/index"
	"github.com/urfave/cli/v2"
)

// openAssistant builds the Assistant for a command. Tests replace it.
var openAssistant = func(c *cli.Context) (*lexrag.Assistant, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithGeneratorHost(c.String("generator-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
		ai.WithTemperature(c.Float64("temperature")),
		ai.WithToken(c.String("token")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return lexrag.NewAssistant(c.String("db"), lexrag.WithAIConfig(config))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := ai.DefaultConfig()
	return &cli.App{
		Name:  "lexrag",
		Usage: "Context-aware question answering over Indian legal documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "lexrag_db",
				EnvVars: []string{"LEXRAG_DB"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   defaults.EmbeddingHost,
				EnvVars: []string{"LEXRAG_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "generator-host",
				Usage:   "Answer generation service host URL",
				Value:   defaults.GeneratorHost,
				EnvVars: []string{"LEXRAG_GENERATOR_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   defaults.EmbeddingModel,
				EnvVars: []string{"LEXRAG_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Answer generation model name",
				Value:   defaults.GeneratorModel,
				EnvVars: []string{"LEXRAG_GENERATOR_MODEL"},
			},
			&cli.Float64Flag{
				Name:  "temperature",
				Usage: "Sampling temperature for answer generation",
				Value: defaults.Temperature,
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token for the model services",
				Value:   defaults.Token,
				EnvVars: []string{"LEXRAG_API_TOKEN", "OPENAI_API_KEY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a legal question",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Continue the conversation with this session id",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the response as JSON",
					},
				},
			},
			{
				Name:   "new-session",
				Usage:  "Print a fresh session id",
				Action: newSessionCommand,
			},
			{
				Name:      "history",
				Usage:     "Show the exchanges of a session",
				ArgsUsage: "SESSION_ID",
				Action:    historyCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the history as JSON",
					},
				},
			},
			{
				Name:   "sessions",
				Usage:  "List recent sessions",
				Action: sessionsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of sessions to list",
						Value: 10,
					},
				},
			},
			{
				Name:   "sweep",
				Usage:  "Delete sessions not updated recently",
				Action: sweepCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Delete sessions idle for more than this many days",
						Value: 30,
					},
				},
			},
			{
				Name:      "load",
				Usage:     "Index a JSON-lines file of pre-chunked passages",
				ArgsUsage: "FILE",
				Action:    loadCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to embed per call",
						Value: index.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of batches to embed concurrently",
						Value: index.DefaultLoaderWorkers,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
						Value: 100,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index and session counts",
				Action: statsCommand,
			},
		},
	}
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	resp, err := assistant.AnswerQuestion(c.Context, question, c.String("session"))
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	out := c.App.Writer
	if c.Bool("json") {
		return writeJSON(out, resp)
	}

	fmt.Fprintln(out, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for i, s := range resp.Sources {
			fmt.Fprintf(out, "  %d. %s (%s, page %s)\n", i+1, s.FileName, s.DocumentType, s.PageNumber)
			fmt.Fprintf(out, "     %s\n", s.ContentPreview)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Session: %s\n", resp.SessionID)
	if resp.IsFollowUp {
		fmt.Fprintln(out, "(answered as a follow-up)")
	}
	return nil
}

func newSessionCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Fprintln(c.App.Writer, assistant.NewSession())
	return nil
}

func historyCommand(c *cli.Context) error {
	sessionID := c.Args().First()
	if sessionID == "" {
		return fmt.Errorf("a session id is required")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	history, err := assistant.GetHistory(c.Context, sessionID)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if c.Bool("json") {
		return writeJSON(out, history)
	}
	for _, ex := range history {
		fmt.Fprintf(out, "[%d] %s\n", ex.ExchangeID, ex.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Q: %s\n", ex.UserQuestion)
		fmt.Fprintf(out, "A: %s\n\n", ex.AssistantResponse)
	}
	return nil
}

func sessionsCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	sessions, err := assistant.ListRecentSessions(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := c.App.Writer
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(out, "%s  %s  %3d  %s\n", s.SessionID,
			s.LastUpdated.Local().Format("2006-01-02 15:04"), s.TotalExchanges, s.Preview)
	}
	return nil
}

func sweepCommand(c *cli.Context) error {
	days := c.Int("days")
	if days < 0 {
		return fmt.Errorf("days must not be negative")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	removed, err := assistant.ClearOldSessions(c.Context, days)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Removed %d sessions idle for more than %d days\n", removed, days)
	return nil
}

func loadCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a passage file is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Passages: %s\n", path)
	fmt.Fprintln(os.Stderr)

	stats, err := assistant.LoadPassages(c.Context, path,
		index.WithBatchSize(c.Int("batch-size")),
		index.WithWorkers(c.Int("workers")),
		index.WithProgress(os.Stderr, c.Int("report-interval")),
	)
	fmt.Fprintf(c.App.Writer, "Loaded %d passages (%d read, %d skipped, %d failed)\n",
		stats.Loaded, stats.Read, stats.Skipped, stats.Failed)
	if err != nil {
		return fmt.Errorf("load incomplete: %w", err)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	assistant, err := openAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	count, err := assistant.PassageCount(c.Context)
	if err != nil {
		return fmt.Errorf("failed to count passages: %w", err)
	}
	sessions, err := assistant.ListRecentSessions(c.Context, 1<<20)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Passages: %d\nSessions: %d\n", count, len(sessions))
	if count == 0 {
		fmt.Fprintln(c.App.Writer, "The index is empty; run 'lexrag load' first.")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
