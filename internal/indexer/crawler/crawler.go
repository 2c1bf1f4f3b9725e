// Package crawler walks a directory tree and turns every matching file into
// a (path, words) entry ready for ingestion.
package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/tokenizer"
)

// Entry is one crawled file.
type Entry struct {
	Path  string
	Words []string
}

// Options controls which files are read and how many are read at once.
type Options struct {
	Extensions  []string
	ReadWorkers int
}

// Crawl reads every regular file under root whose extension is listed in
// opts.Extensions (all files when the list is empty). Files are read
// concurrently; the entries are returned sorted by path.
func Crawl(ctx context.Context, root string, opts Options) ([]Entry, error) {
	logger := slog.Default().With("component", "crawler", "root", root)

	paths, err := collect(root, opts.Extensions)
	if err != nil {
		return nil, err
	}

	workers := opts.ReadWorkers
	if workers < 1 {
		workers = 1
	}
	entries := make([]Entry, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			entries[i] = Entry{Path: path, Words: tokenizer.Words(string(data))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("crawl complete", "files", len(entries), "workers", workers)
	return entries, nil
}

func collect(root string, extensions []string) ([]string, error) {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
