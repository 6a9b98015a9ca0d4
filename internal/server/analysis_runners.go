package server

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/camptocamp/odoo-addons-analyzer/internal/analyze"
	"github.com/camptocamp/odoo-addons-analyzer/internal/report"
)

// renderFunc writes one view of a repository report.
type renderFunc func(w io.Writer, repo *analyze.Repository, format report.Format) error

// repoRunner implements Runner on top of the analyzer. All daemon methods
// share the analyzer configuration and caches and differ only in how the
// resulting report is rendered.
type repoRunner struct {
	fsys    afero.Fs
	cfg     analyze.Config
	files   *analyze.FileCache
	reports *analyze.ReportCache
	render  renderFunc
}

// RunnerDeps bundles what every analysis runner needs. Reports may be nil to
// disable the on-disk report cache.
type RunnerDeps struct {
	Fs      afero.Fs
	Config  analyze.Config
	Files   *analyze.FileCache
	Reports *analyze.ReportCache
}

// NewAnalyzeRunner creates the runner behind the analyze method.
func NewAnalyzeRunner(deps RunnerDeps) AnalyzeRunner {
	return &repoRunner{
		fsys: deps.Fs, cfg: deps.Config, files: deps.Files, reports: deps.Reports,
		render: report.Write,
	}
}

// NewModulesRunner creates the runner behind the modules method.
func NewModulesRunner(deps RunnerDeps) ModulesRunner {
	return &repoRunner{
		fsys: deps.Fs, cfg: deps.Config, files: deps.Files, reports: deps.Reports,
		render: report.WriteModules,
	}
}

// NewModelsRunner creates the runner behind the models method.
func NewModelsRunner(deps RunnerDeps) ModelsRunner {
	return &repoRunner{
		fsys: deps.Fs, cfg: deps.Config, files: deps.Files, reports: deps.Reports,
		render: report.WriteModels,
	}
}

// Run analyzes the repository named by params and renders the runner's view.
func (r *repoRunner) Run(ctx context.Context, params MethodParams) (string, error) {
	if params.Path == "" {
		return "", fmt.Errorf("missing path")
	}

	format, err := report.ParseFormat(params.Format)
	if err != nil {
		return "", err
	}

	repo, err := r.repository(ctx, params)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.render(&buf, repo, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// repository runs the analysis, honoring ctx cancellation. The report cache
// is consulted only for runs with the configured defaults; parameter
// overrides always analyze fresh.
func (r *repoRunner) repository(ctx context.Context, params MethodParams) (*analyze.Repository, error) {
	cfg := r.cfg
	overridden := false
	if len(params.Languages) > 0 {
		cfg.Languages = params.Languages
		overridden = true
	}
	if params.Recursive && !cfg.Scan.Recursive {
		cfg.Scan.Recursive = true
		overridden = true
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheable := r.reports != nil && !overridden
	if cacheable {
		if repo, ok := r.reports.Get(params.Path); ok {
			return repo, nil
		}
	}

	type result struct {
		repo *analyze.Repository
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		repo, err := analyze.New(r.fsys, cfg, r.files).Repository(params.Path)
		ch <- result{repo, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if cacheable {
			// Best effort; a failed write only costs a reanalysis.
			_ = r.reports.Set(params.Path, res.repo)
		}
		return res.repo, nil
	}
}
