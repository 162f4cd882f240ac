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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/vaultrag"
	"github.com/poiesic/vaultrag/ai"
	"github.com/poiesic/vaultrag/core"
)

func main() {
	app := &cli.App{
		Name:  "vaultrag",
		Usage: "Local-first RAG pipeline over a folder of notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Build or refresh the vault index",
				Action: indexCommand,
				Flags: append(commonFlags(),
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep running and re-index on file changes",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Run hybrid retrieval over the indexed vault",
				Action:    searchCommand,
				ArgsUsage: "<query>",
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 15,
					},
					&cli.StringSliceFlag{
						Name:  "folder",
						Usage: "Restrict results to documents under a folder (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Restrict results to documents carrying a tag (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "file",
						Usage: "Restrict results to specific document paths (repeatable)",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question grounded in the vault",
				Action:    askCommand,
				ArgsUsage: "<question>",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:  "session",
						Usage: "Conversation session name",
						Value: "default",
					},
					&cli.StringSliceFlag{
						Name:  "folder",
						Usage: "Restrict context to documents under a folder (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Restrict context to documents carrying a tag (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "file",
						Usage: "Restrict context to specific document paths (repeatable)",
					},
				),
			},
			{
				Name:   "purge",
				Usage:  "Delete stored vectors for excluded folders",
				Action: purgeCommand,
				Flags:  commonFlags(),
			},
			{
				Name:   "stats",
				Usage:  "Show index statistics",
				Action: statsCommand,
				Flags:  commonFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "vault",
			Aliases:  []string{"v"},
			Usage:    "Path to the vault (note folder)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Directory for index data (vectors, history)",
			Value:   ".vaultrag",
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"VAULTRAG_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"VAULTRAG_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Chat completion model name",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"VAULTRAG_CHAT_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for hosted services",
			EnvVars: []string{"VAULTRAG_API_KEY"},
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Folder to exclude from indexing and retrieval (repeatable)",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Maximum chunk size in characters",
			Value: vaultrag.DefaultChunkSize,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Overlap carried across chunk boundaries",
			Value: vaultrag.DefaultChunkOverlap,
		},
		&cli.BoolFlag{
			Name:  "no-redaction",
			Usage: "Disable secret redaction (not recommended)",
		},
		&cli.BoolFlag{
			Name:  "all-files",
			Usage: "Index every file, not just markdown",
		},
	}
}

func openPipeline(c *cli.Context) (*vaultrag.Pipeline, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("chat-model")),
		ai.WithAPIKey(c.String("api-key")),
	)

	return vaultrag.NewPipeline(c.String("vault"), c.String("data"),
		vaultrag.WithAIConfig(aiConfig),
		vaultrag.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")),
		vaultrag.WithExcludedFolders(c.StringSlice("exclude")),
		vaultrag.WithRedaction(!c.Bool("no-redaction"), nil),
		vaultrag.WithMarkdownOnly(!c.Bool("all-files")),
	)
}

func filterFromFlags(c *cli.Context) *core.Filter {
	filter := &core.Filter{
		Files:   c.StringSlice("file"),
		Folders: c.StringSlice("folder"),
		Tags:    c.StringSlice("tag"),
	}
	if filter.IsEmpty() {
		return nil
	}
	return filter
}

func indexCommand(c *cli.Context) error {
	pipeline, err := openPipeline(c)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	ctx := context.Background()
	started := time.Now()
	report, err := pipeline.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed in %s: %d embedded, %d unchanged, %d failed\n",
		time.Since(started).Round(time.Millisecond), report.Processed, report.Skipped, report.Failed)
	if report.Err != nil {
		fmt.Fprintf(os.Stderr, "Last error: %v\n", report.Err)
	}

	if !c.Bool("watch") {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Watch(watchCtx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Watching for changes, Ctrl-C to stop")
	<-watchCtx.Done()
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	pipeline, err := openPipeline(c)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	ctx := context.Background()
	if _, err := pipeline.Rebuild(ctx); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	results := pipeline.Search(ctx, query, c.Int("limit"), filterFromFlags(c))
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %s (%.0f%%) %s\n", i+1, r.DisplayLink, r.Score*100, r.DocumentPath)
		fmt.Fprintf(w, "    %s\n", firstLine(r.Content))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	pipeline, err := openPipeline(c)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	ctx := context.Background()
	if _, err := pipeline.Rebuild(ctx); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	answer, err := pipeline.Ask(ctx, c.String("session"), question, filterFromFlags(c))
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func purgeCommand(c *cli.Context) error {
	pipeline, err := openPipeline(c)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	count, err := pipeline.PurgeExcluded()
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Purged %d vectors\n", count)
	return nil
}

func statsCommand(c *cli.Context) error {
	pipeline, err := openPipeline(c)
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer pipeline.Close()

	if _, err := pipeline.Rebuild(context.Background()); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	stats := pipeline.Stats()
	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Chunks:    %d\n", stats.Chunks)
	fmt.Printf("Vectors:   %d\n", stats.Vectors)
	if stats.NeedsRebuild {
		fmt.Println("Warning: legacy records detected, a full re-index is recommended")
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "…"
	}
	return s
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
