// Package ingest turns saved model transcripts into library items and keeps
// the library in step with its sources.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studyparse/internal/dispatch"
	"github.com/conorfennell/studyparse/internal/gitsource"
	"github.com/conorfennell/studyparse/internal/storage"
)

// transcriptExts are the file extensions scanned for model output.
var transcriptExts = map[string]bool{".md": true, ".markdown": true, ".txt": true}

// Syncer reconciles every configured source with the library.
type Syncer struct {
	DB *storage.DB
	// ReposDir holds the local clones of git sources.
	ReposDir string
	// Progress receives git transfer progress; nil discards it.
	Progress io.Writer
	// Fetch clones or updates a git source. It defaults to gitsource.Sync.
	Fetch func(ctx context.Context, url, localPath string) error
}

// Report summarizes one sync run.
type Report struct {
	Sources  int `json:"sources"`
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	Orphaned int `json:"orphaned"`
	Errors   int `json:"errors"`
}

func (r *Report) add(o Report) {
	r.Parsed += o.Parsed
	r.Inserted += o.Inserted
	r.Orphaned += o.Orphaned
	r.Errors += o.Errors
}

// AddSource registers a local directory or git URL and returns the stored
// source. Git sources are recognised by their URL shape, and local paths are
// stored absolute.
func AddSource(db *storage.DB, path string) (storage.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return storage.Source{}, errors.New("source path cannot be empty")
	}

	sourceType := storage.SourceLocal
	if IsGitURL(path) {
		sourceType = storage.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return storage.Source{}, fmt.Errorf("resolving %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return storage.Source{}, fmt.Errorf("source %s: %w", abs, err)
		}
		if !info.IsDir() {
			return storage.Source{}, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return storage.Source{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return storage.Source{}, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// IsGitURL reports whether path looks like a git remote.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// Run iterates over all sources and reconciles them. A source that fails is
// logged and counted, and the remaining sources are still synced. Orphans are
// deleted only after every source has been scanned, so an item that another
// source still produces is kept.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	var report Report

	slog.Info("Starting sync process for all sources...")
	sources, err := s.DB.GetAllSources()
	if err != nil {
		return report, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with: studyparse add-source <path/or/url.git>")
		return report, nil
	}

	if err := os.MkdirAll(s.ReposDir, os.ModePerm); err != nil {
		return report, fmt.Errorf("failed to create repos directory: %w", err)
	}

	fetch := s.Fetch
	if fetch == nil {
		fetch = func(ctx context.Context, url, localPath string) error {
			return gitsource.Sync(ctx, url, localPath, s.Progress)
		}
	}

	found := make(map[string]bool)
	var scanned []storage.Source
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Sources++
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == storage.SourceGit {
			localRepoPath, err := gitURLToLocalPath(s.ReposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
				report.Errors++
				continue
			}

			if err := fetch(ctx, source.Path, localRepoPath); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				report.Errors++
				continue
			}
			dir = localRepoPath
		}

		r, err := s.scan(source, dir, found)
		report.add(r)
		if err != nil {
			slog.Error("Error reconciling source", "id", source.ID, "path", dir, "error", err)
			report.Errors++
			continue
		}
		scanned = append(scanned, source)
	}

	for _, source := range scanned {
		report.add(s.prune(source, found))
	}
	slog.Info("Sync process complete.",
		"sources", report.Sources,
		"inserted", report.Inserted,
		"orphaned", report.Orphaned,
		"errors", report.Errors,
	)
	return report, nil
}

// scan inserts the records found under dir that the library does not have
// yet, and marks every record it sees in found.
func (s *Syncer) scan(source storage.Source, dir string, found map[string]bool) (Report, error) {
	var report Report

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !transcriptExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("Failed to read transcript", "path", path, "error", readErr)
			report.Errors++
			return nil
		}

		topic := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		items, itemsErr := Items(dispatch.DetectAndParseAll(string(content), topic), topic)
		if itemsErr != nil {
			slog.Warn("Failed to encode records", "path", path, "error", itemsErr)
			report.Errors++
			return nil
		}

		for _, it := range items {
			report.Parsed++
			found[it.Hash] = true

			existing, findErr := s.DB.FindItemByHash(it.Hash)
			if findErr != nil {
				slog.Warn("DB check failed", "hash", it.Hash, "error", findErr)
				report.Errors++
				continue
			}
			if existing == nil {
				slog.Debug("New item found, inserting...", "hash", it.Hash, "type", it.ContentType)
				if insertErr := s.DB.InsertItem(it, source.ID); insertErr != nil {
					slog.Warn("DB insert failed", "hash", it.Hash, "error", insertErr)
					report.Errors++
					continue
				}
				report.Inserted++
			}
		}
		return nil
	})

	if walkErr != nil {
		return report, fmt.Errorf("walking %s: %w", dir, walkErr)
	}
	slog.Debug("Scanned source", "path", dir, "parsed_items", report.Parsed, "inserted", report.Inserted)
	return report, nil
}

// prune deletes the source's items that no scanned source produced.
func (s *Syncer) prune(source storage.Source, found map[string]bool) Report {
	var report Report
	dbItems, err := s.DB.GetItemsBySourceID(source.ID)
	if err != nil {
		slog.Error("Error listing source items", "id", source.ID, "error", err)
		report.Errors++
		return report
	}

	for _, dbItem := range dbItems {
		if !found[dbItem.Hash] {
			slog.Info("Orphaned item, deleting", "hash", dbItem.Hash)
			if err := s.DB.DeleteItemByHash(dbItem.Hash); err != nil {
				slog.Warn("Failed to delete orphaned item", "hash", dbItem.Hash, "error", err)
				report.Errors++
				continue
			}
			report.Orphaned++
		}
	}

	if err := s.DB.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"orphaned_deleted", report.Orphaned,
		"errors", report.Errors,
	)
	return report
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
