package commands

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/articleforge/internal/app"
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

// BatchCmd implements the 'batch' command.
type BatchCmd struct {
	Keywords    string `arg:"" help:"File with one keyword per line ('#' starts a comment)" type:"existingfile"`
	Tenant      string `short:"t" help:"Tenant id" required:"" env:"ARTICLEFORGE_TENANT"`
	Caller      string `help:"Caller id" default:"cli" env:"ARTICLEFORGE_CALLER"`
	Product     string `short:"p" help:"Product reference (enables internal linking)"`
	Options     string `short:"o" help:"YAML or JSON file with option overrides" type:"existingfile"`
	Concurrency int    `short:"j" help:"Concurrent runs (default from pipeline.batch_concurrency)"`
}

// BatchItem is one keyword's outcome.
type BatchItem struct {
	Keyword string            `json:"keyword"`
	Result  *models.RunResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func (b *BatchCmd) Run(global *Global, root *CLI) error {
	keywords, err := readKeywords(b.Keywords)
	if err != nil {
		return err
	}
	var opts *models.PartialOptions
	if b.Options != "" {
		opts = &models.PartialOptions{}
		if err := decodeYAMLFile(b.Options, opts); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx, global, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	limit := b.Concurrency
	if limit <= 0 {
		limit = rt.Config.Pipeline.BatchConcurrency
	}

	items := runBatch(ctx, rt, keywords, limit, func(kw string) models.Request {
		return models.Request{
			SubjectKeyword: kw,
			TenantID:       b.Tenant,
			CallerID:       b.Caller,
			ProductRef:     b.Product,
			Options:        opts,
		}
	})

	if err := writeJSON(os.Stdout, items); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to write batch results").Build()
	}

	failed := 0
	for _, it := range items {
		if it.Error != "" || it.Result == nil || it.Result.Status == models.RunFailed {
			failed++
		}
	}
	slog.Info("Batch finished", slog.Int("runs", len(items)), slog.Int("failed", failed))
	if failed > 0 {
		return errors.PipelineError("one or more batch runs failed").
			WithContext("failed", failed).
			WithContext("total", len(items)).
			Build()
	}
	return nil
}

// runBatch runs one pipeline per keyword with at most limit in flight.
// Results keep keyword order; a failed run never cancels the others.
func runBatch(ctx context.Context, rt *app.Runtime, keywords []string, limit int, build func(string) models.Request) []BatchItem {
	items := make([]BatchItem, len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, kw := range keywords {
		items[i].Keyword = kw
		g.Go(func() error {
			res, err := rt.Run(gctx, build(kw))
			items[i].Result = res
			if err != nil {
				items[i].Error = err.Error()
				slog.Warn("Batch run failed", logfields.Keyword(kw), logfields.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func readKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to open keywords file").
			WithContext("path", path).Build()
	}
	defer func() { _ = f.Close() }()

	var out []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to read keywords file").
			WithContext("path", path).Build()
	}
	if len(out) == 0 {
		return nil, errors.ValidationError("keywords file contains no keywords").
			WithContext("path", path).Build()
	}
	return out, nil
}
