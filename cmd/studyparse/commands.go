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
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/conorfennell/studyparse/internal/dispatch"
	"github.com/conorfennell/studyparse/internal/fsrs"
	"github.com/conorfennell/studyparse/internal/ingest"
	"github.com/conorfennell/studyparse/internal/ratelimit"
	"github.com/conorfennell/studyparse/internal/storage"
	"github.com/conorfennell/studyparse/internal/watch"
	"github.com/conorfennell/studyparse/internal/web"
)

// print writes v in the configured output format.
func (e *env) print(v any) error {
	if e.cfg.Format == "yaml" {
		enc := yaml.NewEncoder(e.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// input reads the file named by the first argument, or stdin when there is
// none or it is "-".
func (e *env) input() (string, error) {
	r, name := e.in, "stdin"
	if len(e.args) > 0 && e.args[0] != "-" {
		f, err := os.Open(e.args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		r, name = f, e.args[0]
	}

	limit := e.cfg.MaxInputBytes
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%s is larger than %d bytes", name, limit)
	}
	return string(data), nil
}

func (e *env) openDB() (*storage.DB, error) {
	db, err := storage.Open(e.cfg.DB)
	if err != nil {
		return nil, err
	}
	slog.Debug("Database opened", "path", e.cfg.DB)
	return db, nil
}

func runExtract(ctx context.Context, e *env) error {
	text, err := e.input()
	if err != nil {
		return err
	}
	ex := dispatch.DetectAndParseAll(text, e.cfg.Topic)
	slog.Debug("Extracted", "types", ex.Types())

	if save, _ := e.flags.GetBool("save"); save {
		db, err := e.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := ingest.Save(db, ex, e.cfg.Topic, 0)
		if err != nil {
			return err
		}
		slog.Info("Saved to library", "inserted", n)
	}
	return e.print(ex)
}

func runWatch(ctx context.Context, e *env) error {
	if len(e.args) != 1 {
		return errors.New("usage: studyparse watch <file>")
	}
	err := watch.Follow(ctx, e.args[0], e.cfg.Topic, e.cfg.Debounce, func(ex dispatch.Extraction) {
		if e.cfg.Format == "yaml" {
			fmt.Fprintln(e.out, "---")
		}
		if err := e.print(ex); err != nil {
			slog.Error("Error printing extraction", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type calendar struct {
	Plan []fsrs.ScheduledSession `json:"plan" yaml:"plan"`
	Due  []fsrs.ScheduledSession `json:"due" yaml:"due"`
}

func runCalendar(ctx context.Context, e *env) error {
	text, err := e.input()
	if err != nil {
		return err
	}

	now := time.Now()
	start := now
	if s, _ := e.flags.GetString("start"); s != "" {
		if start, err = time.ParseInLocation(time.DateOnly, s, time.Local); err != nil {
			return fmt.Errorf("invalid start date %q: %w", s, err)
		}
	}

	ex := dispatch.DetectAndParseAll(text, e.cfg.Topic)
	if len(ex.SpacedRepetition) == 0 {
		return errors.New("no spaced repetition plan found")
	}
	plan := fsrs.Project(ex.SpacedRepetition, start)
	due := fsrs.DueSessions(plan, now)
	if due == nil {
		due = []fsrs.ScheduledSession{}
	}
	return e.print(calendar{Plan: plan, Due: due})
}

func runServe(ctx context.Context, e *env) error {
	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	limiter := ratelimit.New(e.cfg.RateLimit, e.cfg.RateBurst)
	srv := web.NewServer(db, web.Options{
		Limiter:       limiter,
		MaxInputBytes: e.cfg.MaxInputBytes,
		Syncer:        &ingest.Syncer{DB: db, ReposDir: e.cfg.ReposDir},
	})
	httpSrv := &http.Server{
		Addr:              e.cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := limiter.Prune(now.Add(-10 * time.Minute)); n > 0 {
					slog.Debug("Pruned idle clients", "count", n)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", e.cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func runAddSource(ctx context.Context, e *env) error {
	if len(e.args) != 1 {
		return errors.New("usage: studyparse add-source <path|url>")
	}
	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := ingest.AddSource(db, e.args[0])
	if err != nil {
		return err
	}
	return e.print(src)
}

func runSync(ctx context.Context, e *env) error {
	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	s := &ingest.Syncer{DB: db, ReposDir: e.cfg.ReposDir, Progress: os.Stderr}
	report, err := s.Run(ctx)
	if err != nil {
		return err
	}
	return e.print(report)
}

func runDue(ctx context.Context, e *env) error {
	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.DueItems(time.Now(), 0)
	if err != nil {
		return err
	}
	views, err := ingest.Views(items)
	if err != nil {
		return err
	}
	return e.print(views)
}

func runReview(ctx context.Context, e *env) error {
	if len(e.args) != 2 {
		return errors.New("usage: studyparse review <hash> <1-4>")
	}
	grade, err := strconv.Atoi(e.args[1])
	if err != nil {
		return fmt.Errorf("invalid grade %q", e.args[1])
	}

	db, err := e.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	it, err := ingest.Review(db, fsrs.DefaultParams(), e.args[0], grade, time.Now())
	if err != nil {
		return err
	}
	v, err := ingest.View(*it)
	if err != nil {
		return err
	}
	return e.print(v)
}
