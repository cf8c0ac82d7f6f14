// Copyright 2025 Poiesic LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
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
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/groundwork"
	"github.com/poiesic/groundwork/ai"
	"github.com/poiesic/groundwork/audit"
	"github.com/poiesic/groundwork/core"
	"github.com/poiesic/groundwork/ingest"
)

func main() {
	app := &cli.App{
		Name:  "groundwork",
		Usage: "Grounded extraction over redacted, indexed documents",
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
				Name:   "query",
				Usage:  "Ingest documents and retrieve the best-matching chunks for a query",
				Action: queryCommand,
				Flags: append(engineFlags(),
					&cli.StringSliceFlag{
						Name:     "doc",
						Aliases:  []string{"d"},
						Usage:    "Document file to ingest (repeatable)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of chunks to return",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Similarity floor for hits",
						Value: 0.3,
					},
				),
			},
			{
				Name:   "extract",
				Usage:  "Extract company signals from a payload, optionally grounded in documents",
				Action: extractCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Payload file (reads stdin when omitted)",
					},
					&cli.StringSliceFlag{
						Name:    "doc",
						Aliases: []string{"d"},
						Usage:   "Document file to ground against (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "grounded",
						Usage: "Require context and citations",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Groundedness rejection threshold",
						Value: 0.8,
					},
					&cli.StringFlag{
						Name:  "audit-db",
						Usage: "Path to a BadgerDB audit trail directory",
					},
				),
			},
			{
				Name:   "audit",
				Usage:  "List recorded audit events",
				Action: auditCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "audit-db",
						Usage:    "Path to the BadgerDB audit trail directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events to print (0 = all)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are the provider and policy flags shared by commands that
// build an engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL for embeddings and chat",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name for extraction",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "index-dim",
			Usage: "Embedding vector dimensionality",
			Value: groundwork.DefaultIndexDim,
		},
		&cli.StringFlag{
			Name:  "zone",
			Usage: "Redaction zone (green, amber, red)",
			Value: "green",
		},
		&cli.StringFlag{
			Name:  "salt",
			Usage: "Salt for red-zone redaction hashes",
		},
	}
}

func buildEngine(c *cli.Context, extra ...groundwork.EngineOption) (*groundwork.Engine, error) {
	zone, err := core.ParseZone(c.String("zone"))
	if err != nil {
		return nil, err
	}

	config := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := append([]groundwork.EngineOption{
		groundwork.WithAIConfig(config),
		groundwork.WithZone(zone),
		groundwork.WithSalt(c.String("salt")),
		groundwork.WithIndexDim(c.Int("index-dim")),
	}, extra...)

	return groundwork.NewEngine(opts...)
}

// loadDocuments reads each file into a Document keyed by its base name
// without extension.
func loadDocuments(paths []string) ([]ingest.Document, error) {
	docs := make([]ingest.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		base := filepath.Base(path)
		id := strings.TrimSuffix(base, filepath.Ext(base))
		docs = append(docs, ingest.Document{ID: id, Text: string(data)})
	}
	return docs, nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := loadDocuments(c.StringSlice("doc"))
	if err != nil {
		return err
	}
	total, err := engine.IngestBatch(ctx, docs)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d chunks from %d documents\n", total, len(docs))

	items, err := engine.Retrieve(ctx, c.String("query"), c.Int("top-k"), c.Float64("min-score"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(items))
	for i, item := range items {
		fmt.Printf("%d: %s:%d [%0.3f] %s\n", i, item.DocID, item.ChunkIdx, item.Score, item.Text)
	}
	return nil
}

func extractCommand(c *cli.Context) error {
	ctx := context.Background()

	var extra []groundwork.EngineOption
	extra = append(extra, groundwork.WithGroundednessThreshold(c.Float64("threshold")))
	if path := c.String("audit-db"); path != "" {
		extra = append(extra, groundwork.WithAuditTrail(path))
	}

	engine, err := buildEngine(c, extra...)
	if err != nil {
		return err
	}
	defer engine.Close()

	if docPaths := c.StringSlice("doc"); len(docPaths) > 0 {
		docs, err := loadDocuments(docPaths)
		if err != nil {
			return err
		}
		if _, err := engine.IngestBatch(ctx, docs); err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
	}

	payload, err := readPayload(c.String("input"))
	if err != nil {
		return err
	}

	var answer *core.AnswerEnvelope
	if c.Bool("grounded") {
		answer, err = engine.ExtractGrounded(ctx, payload)
	} else {
		answer, err = engine.Extract(ctx, payload)
	}
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(answer)
}

func auditCommand(c *cli.Context) error {
	trail, err := audit.OpenTrail(c.String("audit-db"), false)
	if err != nil {
		return fmt.Errorf("opening audit trail: %w", err)
	}
	defer trail.Close()

	events, err := trail.List(c.Int("limit"))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	for _, event := range events {
		if err := encoder.Encode(event); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "%d events\n", len(events))
	return nil
}

func readPayload(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
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
