package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/logfields"
	"git.home.luguber.info/inful/articleforge/internal/pipeline/models"
)

const defaultCaller = "cli"

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Keyword     string `short:"k" help:"Subject keyword"`
	Tenant      string `short:"t" help:"Tenant id" env:"ARTICLEFORGE_TENANT"`
	Caller      string `help:"Caller id (default cli)" env:"ARTICLEFORGE_CALLER"`
	Product     string `short:"p" help:"Product reference (enables internal linking)"`
	Title       string `help:"Use this title verbatim"`
	ContentFile string `name:"content-file" help:"Markdown file used as the draft instead of generating one; kept byte for byte unless it opens with a YAML frontmatter mapping setting title, slug or description, which is then stripped" type:"existingfile"`
	Request     string `short:"r" help:"YAML or JSON request file; flags override its fields" type:"existingfile"`
	Options     string `short:"o" help:"YAML or JSON file with option overrides" type:"existingfile"`
	Markdown    string `name:"markdown" help:"Also write the finished article as <slug>.md into this directory" type:"path"`
}

func (g *GenerateCmd) Run(global *Global, root *CLI) error {
	req, err := g.buildRequest()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx, global, root)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	res, err := rt.Run(ctx, req)
	if res != nil {
		if werr := writeJSON(os.Stdout, res); werr != nil {
			return errors.WrapError(werr, errors.CategoryRuntime, "failed to write run result").Build()
		}
	}
	if err != nil {
		return err
	}
	slog.Info(res.Summary(), logfields.RunID(res.RunID))
	if g.Markdown != "" && res.Result != nil && res.Result.Content != "" {
		path, werr := exportMarkdown(g.Markdown, req.SubjectKeyword, res)
		if werr != nil {
			return werr
		}
		slog.Info("Article written", slog.String("path", path))
	}
	if res.Status == models.RunFailed {
		return errors.PipelineError("pipeline run failed").
			WithContext(logfields.KeyRunID, res.RunID).
			WithContext("error", res.Error).
			Build()
	}
	return nil
}

func (g *GenerateCmd) buildRequest() (models.Request, error) {
	var req models.Request
	if g.Request != "" {
		if err := decodeYAMLFile(g.Request, &req); err != nil {
			return req, err
		}
	}
	if g.Keyword != "" {
		req.SubjectKeyword = g.Keyword
	}
	if g.Tenant != "" {
		req.TenantID = g.Tenant
	}
	if g.Caller != "" {
		req.CallerID = g.Caller
	}
	if req.CallerID == "" {
		req.CallerID = defaultCaller
	}
	if g.Product != "" {
		req.ProductRef = g.Product
	}
	if g.Title != "" {
		req.ProvidedTitle = g.Title
	}
	if g.ContentFile != "" {
		content, err := os.ReadFile(g.ContentFile)
		if err != nil {
			return req, errors.WrapError(err, errors.CategoryValidation, "failed to read content file").
				WithContext("path", g.ContentFile).Build()
		}
		req.ProvidedContent = string(content)
	}
	if g.Options != "" {
		// Decoding onto the request's options keeps the keys the file omits.
		if req.Options == nil {
			req.Options = &models.PartialOptions{}
		}
		if err := decodeYAMLFile(g.Options, req.Options); err != nil {
			return req, err
		}
	}
	return req, nil
}

func decodeYAMLFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to read file").
			WithContext("path", path).Build()
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.ValidationError("failed to parse file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
