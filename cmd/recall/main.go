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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ai"
)

func main() {
	app := &cli.App{
		Name:  "recall",
		Usage: "Conversational question answering over a personal knowledge corpus",
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
				Name:   "init",
				Usage:  "Ingest the corpus from disk and the document bucket",
				Action: initCommand,
				Flags:  append(storageFlags(), corpusFlags()...),
			},
			{
				Name:      "add",
				Usage:     "Fetch a single document by URL and add it to the index",
				Action:    addCommand,
				ArgsUsage: "<url>",
				Flags:     append(storageFlags(), aiFlags()...),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question against the indexed corpus",
				Action:    askCommand,
				ArgsUsage: "<question>",
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:    "thread",
						Aliases: []string{"t"},
						Usage:   "Conversation thread identifier",
						Value:   "default",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token for the AI service",
			EnvVars: []string{"RECALL_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat completion model name",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
	}
}

func corpusFlags() []cli.Flag {
	return append(aiFlags(),
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Local directory with corpus documents",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Base URL of the document listing API",
		},
		&cli.StringFlag{
			Name:  "cdn-url",
			Usage: "Base URL the listed documents are fetched from",
		},
	)
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	var opts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if token := c.String("token"); token != "" {
		opts = append(opts, ai.WithToken(token))
	}
	if model := c.String("chat-model"); model != "" {
		opts = append(opts, ai.WithChatModel(model))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}

	config := ai.NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func initCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	assistant, err := recall.NewAssistant(c.String("db"),
		recall.WithAIConfig(config),
		recall.WithDataDir(c.String("data-dir")),
		recall.WithBucket(c.String("api-url"), c.String("cdn-url")),
	)
	if err != nil {
		return fmt.Errorf("failed to open assistant: %w", err)
	}
	defer assistant.Close()

	if err := assistant.InitializeCorpus(ctx); err != nil {
		return fmt.Errorf("corpus initialization failed: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Corpus initialized.")
	return nil
}

func addCommand(c *cli.Context) error {
	ctx := context.Background()

	rawURL := c.Args().First()
	if rawURL == "" {
		return fmt.Errorf("document url is required")
	}

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	assistant, err := recall.NewAssistant(c.String("db"), recall.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open assistant: %w", err)
	}
	defer assistant.Close()

	source, err := assistant.IngestOne(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	fmt.Printf("Added %s\n", source)
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	assistant, err := recall.NewAssistant(c.String("db"), recall.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open assistant: %w", err)
	}
	defer assistant.Close()

	result, err := assistant.AnswerQuestion(ctx, question, c.String("thread"))
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Fprintln(os.Stderr, "\nSources:")
		for _, chunk := range result.Sources {
			fmt.Fprintf(os.Stderr, "  - %s\n", chunk.Meta.Source)
		}
	}
	return nil
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
