// Command indexer builds an index over a directory of text files and answers
// boolean queries read from -q or, one per line, from standard input.
//
//	indexer -dir ./data -q "(cat OR dog) ANDNOT fish"
//	echo "cat AND dog" | indexer -dir ./data
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/crawler"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "indexer: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("indexer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional path to config file")
	dir := fs.String("dir", "", "corpus directory (overrides corpus.root)")
	query := fs.String("q", "", "run a single query and exit")
	limit := fs.Int("limit", 0, "maximum results per query, 0 for all")
	idf := fs.String("idf", "", "idf mode: document_frequency or candidate_set")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, "text")

	root := cfg.Corpus.Root
	if *dir != "" {
		root = *dir
	}
	if root == "" {
		return errors.New("no corpus directory: pass -dir or set corpus.root")
	}
	mode := cfg.Search.IDFMode
	if *idf != "" {
		mode = *idf
	}
	idfMode, err := ranker.ParseIDFMode(mode)
	if err != nil {
		return err
	}

	entries, err := crawler.Crawl(ctx, root, crawler.Options{
		Extensions:  cfg.Corpus.Extensions,
		ReadWorkers: cfg.Corpus.ReadWorkers,
	})
	if err != nil {
		return err
	}
	engine := indexer.NewEngine(idfMode, nil)
	defer engine.Close()
	if _, err := engine.IndexCorpus(ctx, entries); err != nil {
		return err
	}
	stats := engine.Stats()
	slog.Info("index ready", "documents", stats.Documents, "terms", stats.Terms, "idf_mode", stats.IDFMode)

	exec := executor.New(engine)
	if *query != "" {
		return answer(ctx, exec, *query, *limit, stdout)
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := answer(ctx, exec, line, *limit, stdout); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// answer prints one "score<TAB>path" line per match, "no results" when the
// query matched nothing, or the syntax error message. Only non-syntax errors
// are returned.
func answer(ctx context.Context, exec *executor.Executor, query string, limit int, w io.Writer) error {
	result, err := exec.Execute(ctx, query, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrSyntax) {
			_, werr := fmt.Fprintf(w, "error: %s\n", apperrors.Message(err))
			return werr
		}
		return err
	}
	if len(result.Results) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}
	for _, doc := range result.Results {
		if _, err := fmt.Fprintf(w, "%.6f\t%s\n", doc.Score, doc.Path); err != nil {
			return err
		}
	}
	return nil
}
