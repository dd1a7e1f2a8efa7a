package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/audit-rank/auditrank/internal/ai"
	"github.com/audit-rank/auditrank/internal/curriculum"
	"github.com/audit-rank/auditrank/internal/grading"
	"github.com/audit-rank/auditrank/internal/platform/cache"
	"github.com/audit-rank/auditrank/internal/platform/config"
	"github.com/audit-rank/auditrank/internal/platform/database"
	"github.com/audit-rank/auditrank/internal/progress"
	"github.com/audit-rank/auditrank/internal/question"
	"github.com/audit-rank/auditrank/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		slog.Error("failed to load policy", "path", cfg.PolicyPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := newApp(ctx, cfg, policy)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// app wires the long-lived components behind the HTTP surface.
type app struct {
	outline   *curriculum.Loader
	catalog   *question.Catalog
	engine    *grading.Engine
	policy    config.Policy
	store     progress.Store
	questions question.Store
	board     *progress.Leaderboard
	quiz      *session.Service
	db        *database.DB
	cache     *cache.Cache

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newApp(ctx context.Context, cfg *config.Config, policy config.Policy) (*app, error) {
	loader := curriculum.NewLoader(cfg.Data.StructurePath)
	catalog := question.NewCatalog(cfg.Data.QuestionsDir, loader)
	if _, err := catalog.Questions(); err != nil {
		return nil, fmt.Errorf("loading question catalog: %w", err)
	}

	router := ai.NewRouter()
	if cfg.AI.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.AI.Google.APIKey, ai.WithGoogleModel(cfg.AI.Google.Model)))
	}
	if cfg.AI.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.AI.OpenAI.APIKey, ai.WithModel(cfg.AI.OpenAI.Model)))
	}

	engine := grading.NewEngine(router,
		grading.WithMaxBatchSize(policy.Grading.MaxBatchSize),
		grading.WithMaxRetries(policy.Grading.MaxRetries),
	)

	a := &app{
		outline:  loader,
		catalog:  catalog,
		engine:   engine,
		policy:   policy,
		sessions: make(map[string]*session.Session),
	}

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		slog.Warn("database unavailable, using in-memory stores", "error", err)
		a.store = progress.NewMemoryStore()
		a.questions = question.NewMemoryStore(catalog)
	} else {
		a.db = db
		pgStore, err := progress.NewPostgresStore(db.Pool)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating progress store: %w", err)
		}
		a.store = pgStore
		qStore, err := question.NewPostgresStore(db.Pool, catalog)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating question store: %w", err)
		}
		a.questions = qStore
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("cache unavailable, leaderboard served from store", "error", err)
		} else {
			a.cache = c
		}
	}
	a.board = progress.NewLeaderboard(a.store, a.cache)
	if a.cache != nil {
		if err := a.board.Rebuild(ctx); err != nil {
			slog.Warn("leaderboard rebuild failed", "error", err)
		}
	}

	a.quiz = session.NewService(catalog, engine, policy,
		session.WithStore(a.store),
		session.WithLeaderboard(a.board),
	)

	return a, nil
}

// sessionFor returns the user's quiz session, creating one on first use.
// Registered accounts keep their stored role and progression; unregistered
// callers get the requested role when it is a known one, and guest access
// otherwise.
func (a *app) sessionFor(username, requestedRole string) *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	if sess, ok := a.sessions[username]; ok {
		return sess
	}

	role := progress.RoleGuest
	var prog progress.Progress
	if user, err := a.store.GetUser(username); err == nil {
		role = user.Role
		prog = progress.Progress{Experience: user.Experience, Level: user.Level}
	} else if r := progress.Role(requestedRole); r.Valid() {
		role = r
	}

	sess := session.New(username, role)
	if prog.Level > 0 {
		sess.Progress = prog
	}
	a.sessions[username] = sess
	return sess
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
}
