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

	"github.com/joho/godotenv"
	"github.com/poiesic/answerdesk"
	"github.com/poiesic/answerdesk/ai/openai"
	"github.com/poiesic/answerdesk/config"
	"github.com/poiesic/answerdesk/core"
	"github.com/poiesic/answerdesk/metrics"
	"github.com/poiesic/answerdesk/questionlog"
	"github.com/poiesic/answerdesk/server"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// newEmbedder is replaced in tests.
var newEmbedder = openai.NewEmbedder

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "answerdesk",
		Usage: "Help desk question answering over a fixed knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"ANSWERDESK_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"ANSWERDESK_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "knowledge",
				Aliases: []string{"k"},
				Usage:   "Knowledge source file (.xlsx or .csv)",
				EnvVars: []string{"ANSWERDESK_KNOWLEDGE"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"ANSWERDESK_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"ANSWERDESK_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding service API key",
				EnvVars: []string{"ANSWERDESK_API_KEY", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Unanswered question log (.xlsx)",
				EnvVars: []string{"ANSWERDESK_LOG_FILE"},
			},
			&cli.BoolFlag{
				Name:  "no-log",
				Usage: "Do not record unanswered questions",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the chat API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "HTTP listen address",
						EnvVars: []string{"ANSWERDESK_ADDR"},
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question, or read questions from stdin when none is given",
				ArgsUsage: "[question]",
				Action:    askCommand,
			},
			{
				Name:   "merge",
				Usage:  "Move spilled questions from the overflow file into the question log",
				Action: mergeCommand,
			},
			{
				Name:  "log",
				Usage: "Inspect the unanswered question log",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List logged questions",
						Action: logListCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "unanswered",
								Usage: "Only show UNANSWERED rows",
							},
						},
					},
					{
						Name:   "count",
						Usage:  "Print the number of UNANSWERED rows",
						Action: logCountCommand,
					},
					{
						Name:      "mark-answered",
						Usage:     "Mark a logged question ANSWERED",
						ArgsUsage: "<question>",
						Action:    logMarkAnsweredCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "note",
								Usage: "Note to store with the row",
							},
						},
					},
				},
			},
		},
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("knowledge") {
		cfg.Knowledge.Path = c.String("knowledge")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("api-key") {
		cfg.Embedding.APIKey = c.String("api-key")
	}
	if c.IsSet("log-file") {
		cfg.QuestionLog.Path = c.String("log-file")
	}
	if c.Bool("no-log") {
		cfg.QuestionLog.Enabled = false
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openService(ctx context.Context, cfg *config.Config, opts ...answerdesk.Option) (*answerdesk.Service, error) {
	embedder, err := newEmbedder(cfg.AIConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	opts = append([]answerdesk.Option{answerdesk.WithLogger(slog.Default())}, opts...)
	return answerdesk.Open(ctx, cfg, embedder, opts...)
}

func openQuestionLog(ctx context.Context, cfg *config.Config) (*questionlog.Log, error) {
	return questionlog.Open(ctx, cfg.QuestionLog.Path,
		questionlog.WithLogger(slog.Default()),
		questionlog.WithMaxRetries(cfg.QuestionLog.MaxRetries),
		questionlog.WithRetryDelay(cfg.QuestionLog.RetryDelay),
	)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var opts []answerdesk.Option
	var prom *metrics.Prometheus
	if cfg.Server.Metrics {
		prom = metrics.NewPrometheus()
		opts = append(opts, answerdesk.WithRecorder(prom))
	}

	svc, err := openService(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	var srvOpts []server.Option
	srvOpts = append(srvOpts, server.WithLogger(slog.Default()))
	if prom != nil {
		srvOpts = append(srvOpts, server.WithMetricsHandler(prom.Handler()))
	}
	srv, err := server.New(svc, srvOpts...)
	if err != nil {
		return err
	}

	sched := cron.New()
	if cfg.QuestionLog.Enabled && cfg.Server.MergeSchedule != "" {
		merge := func() {
			if n, err := svc.MergePending(ctx); err != nil {
				slog.Error("scheduled merge failed", "err", err)
			} else if n > 0 {
				slog.Info("merged pending questions", "count", n)
			}
		}
		if _, err := sched.AddFunc(cfg.Server.MergeSchedule, merge); err != nil {
			return fmt.Errorf("invalid merge schedule %q: %w", cfg.Server.MergeSchedule, err)
		}
		merge()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		<-sched.Stop().Done()
		return nil
	})
	return g.Wait()
}

func askCommand(c *cli.Context) error {
	ctx := c.Context
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := c.App.Writer
	if c.Args().Present() {
		text, err := svc.GenerateAnswer(ctx, strings.Join(c.Args().Slice(), " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	}

	fmt.Fprintf(out, "Loaded %d entries. Type 'quit' to exit.\n", svc.KnowledgeBaseSize())
	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if isQuit(question) {
			break
		}
		text, err := svc.GenerateAnswer(ctx, question)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, text)
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

func isQuit(s string) bool {
	switch strings.ToLower(s) {
	case "quit", "exit", "종료":
		return true
	}
	return false
}

func mergeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	qlog, err := openQuestionLog(c.Context, cfg)
	if err != nil {
		return err
	}
	n, err := qlog.MergePending(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "merged %d question(s) into %s\n", n, cfg.QuestionLog.Path)
	return nil
}

func logListCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	qlog, err := openQuestionLog(c.Context, cfg)
	if err != nil {
		return err
	}
	for _, r := range qlog.ListAll(c.Context) {
		if c.Bool("unanswered") && r.Status != core.StatusUnanswered {
			continue
		}
		line := fmt.Sprintf("%d\t%s\t%s\t%s", r.Seq, r.Timestamp, r.Status, r.Question)
		if r.Note != "" {
			line += "\t" + r.Note
		}
		fmt.Fprintln(c.App.Writer, line)
	}
	return nil
}

func logCountCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	qlog, err := openQuestionLog(c.Context, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, qlog.CountUnanswered(c.Context))
	return nil
}

func logMarkAnsweredCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	qlog, err := openQuestionLog(c.Context, cfg)
	if err != nil {
		return err
	}
	if !qlog.MarkAnswered(c.Context, question, c.String("note")) {
		return fmt.Errorf("question %q not found in %s", question, cfg.QuestionLog.Path)
	}
	fmt.Fprintf(c.App.Writer, "marked %q answered\n", question)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
