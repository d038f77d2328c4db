package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pavelanni/protu/internal/api"
	"github.com/pavelanni/protu/internal/handler"
	appI18n "github.com/pavelanni/protu/internal/i18n"
	"github.com/pavelanni/protu/internal/model"
	"github.com/pavelanni/protu/internal/store"
	"github.com/pavelanni/protu/internal/tutor"
	"github.com/pavelanni/protu/internal/tutor/prompts"
)

const (
	cleanupInterval = 10 * time.Minute
	stateIdle       = 2 * time.Hour
	historyPageSize = 50
)

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "protu",
		Short: "Learning platform web front: quiz generation, taking and history",
	}

	serve := serveCmd()
	root.AddCommand(serve, historyCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `protu --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	f.String("log-file", "", "Also write logs to this file, rotated")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "protu.db", "SQLite database path")
	f.String("api-url", "http://localhost:3000/api", "Backend REST API base URL")
	f.Duration("api-timeout", api.DefaultTimeout, "Timeout of a backend request")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /ru)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL of the lesson tutor")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "", "LLM model name (empty disables the lesson tutor)")
	f.String("tutor-variant", string(prompts.VariantStandard), "Tutor prompt variant (concise, standard, socratic)")
	f.Float64("tutor-rate", 6, "Tutor questions per minute per user (0 = unlimited)")
	f.Bool("metrics", true, "Serve Prometheus metrics on /metrics")
	addLogFlags(cmd)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Export the quiz history of a user as JSON",
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.String("api-url", "http://localhost:3000/api", "Backend REST API base URL")
	f.Duration("api-timeout", api.DefaultTimeout, "Timeout of a backend request")
	f.String("token", "", "Bearer token of the user (or set PROTU_TOKEN)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if path := v.GetString("log-file"); path != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(out, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(out, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PROTU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("protu")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/protu")
	v.AddConfigPath("/etc/protu")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if !appI18n.IsSupported(lang) {
		slog.Warn("unsupported language, using en", "lang", lang)
		lang = "en"
	}
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	variant := strings.ToLower(strings.TrimSpace(v.GetString("tutor-variant")))
	if !prompts.IsValidVariant(variant) {
		slog.Warn("invalid tutor-variant, using standard", "variant", variant)
		variant = string(prompts.VariantStandard)
	}
	tut, err := tutor.New(tutor.Config{
		BaseURL: v.GetString("llm-url"),
		APIKey:  v.GetString("llm-key"),
		Model:   v.GetString("llm-model"),
		Variant: prompts.Variant(variant),
		Rate:    v.GetFloat64("tutor-rate"),
		Burst:   3,
	})
	if err != nil {
		return fmt.Errorf("create tutor: %w", err)
	}
	if !tut.Available() {
		slog.Warn("no LLM model configured, lesson tutor disabled")
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.AppConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	}
	client := api.New(v.GetString("api-url"), v.GetDuration("api-timeout"))

	h, err := handler.New(db, client, tut, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if v.GetBool("metrics") {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := api.RegisterMetrics(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go housekeeping(ctx, db, h)

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	slog.Info("starting server",
		"addr", addr,
		"api_url", v.GetString("api-url"),
		"model", v.GetString("llm-model"),
		"tutor_variant", variant,
		"lang", lang,
		"base_path", basePath,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// housekeeping drops expired sign-in sessions and idle UI state.
func housekeeping(ctx context.Context, db *store.Store, h *handler.Handler) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := db.CleanupExpiredSessions()
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
			} else if n > 0 {
				slog.Info("removed expired sessions", "count", n)
			}
			h.Prune(stateIdle)
		}
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	token := v.GetString("token")
	if token == "" {
		return errors.New("a bearer token is required: set --token or PROTU_TOKEN")
	}
	backend := api.New(v.GetString("api-url"), v.GetDuration("api-timeout")).Session(api.StaticToken(token))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	export, err := exportHistory(ctx, backend)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

// exportHistory walks every page of the three dashboard collections.
func exportHistory(ctx context.Context, backend *api.Session) (*model.HistoryExport, error) {
	summary, err := backend.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	export := &model.HistoryExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:    *summary,
		Passed:     []model.AttemptSummary{},
		Failed:     []model.AttemptSummary{},
		Drafts:     []model.DraftSummary{},
	}

	for _, filter := range []api.AttemptFilter{api.FilterPassed, api.FilterFailed} {
		for page := 1; ; page++ {
			res, err := backend.ListAttempts(ctx, filter, api.ListQuery{
				Page: page, Limit: historyPageSize, SortBy: "dateTaken", SortOrder: "desc",
			})
			if err != nil {
				return nil, fmt.Errorf("fetch %s attempts page %d: %w", filter, page, err)
			}
			if filter == api.FilterPassed {
				export.Passed = append(export.Passed, res.Quizzes...)
			} else {
				export.Failed = append(export.Failed, res.Quizzes...)
			}
			if !res.Pagination.HasMore() {
				break
			}
		}
	}

	for page := 1; ; page++ {
		res, err := backend.ListDrafts(ctx, api.ListQuery{
			Page: page, Limit: historyPageSize, SortBy: "createdDate", SortOrder: "desc",
		})
		if err != nil {
			return nil, fmt.Errorf("fetch drafts page %d: %w", page, err)
		}
		export.Drafts = append(export.Drafts, res.Quizzes...)
		if !res.Pagination.HasMore() {
			break
		}
	}

	slog.Info("history exported",
		"passed", len(export.Passed),
		"failed", len(export.Failed),
		"drafts", len(export.Drafts),
	)
	return export, nil
}
