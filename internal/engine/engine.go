// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

// Package engine runs one verification pipeline per package type against a
// set of package archives and settles the results into the build history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/archive"
	"github.com/ironcore-dev/bomcheck/internal/config"
	"github.com/ironcore-dev/bomcheck/internal/diag"
	"github.com/ironcore-dev/bomcheck/internal/history"
	"github.com/ironcore-dev/bomcheck/internal/metadata"
	"github.com/ironcore-dev/bomcheck/internal/payload"
)

// RunReport is the name of the report collecting findings that belong to no
// single package type.
const RunReport = "run"

// CheckArchive is the check name of archive selection and structure diagnostics.
const CheckArchive = "archive"

// Engine verifies package archives against a release BOM.
type Engine struct {
	log      logr.Logger
	cfg      *config.Config
	bom      *v1alpha1.ReleaseBOM
	metrics  *diag.Collector
	unzip    *archive.Unzipper
	metadata *metadata.Verifier
	payload  *payload.Verifier
	history  *history.Checker
}

// New returns an Engine. Findings of every run are added to metrics.
func New(log logr.Logger, cfg *config.Config, bom *v1alpha1.ReleaseBOM, metrics *diag.Collector) (*Engine, error) {
	digest, err := archive.Digester(cfg.Checksum)
	if err != nil {
		return nil, err
	}
	return &Engine{
		log:      log,
		cfg:      cfg,
		bom:      bom,
		metrics:  metrics,
		unzip:    archive.NewUnzipper(log.WithName("unzip"), cfg.Archive.Unzip, cfg.Archive.BenignStderr),
		metadata: metadata.NewVerifier(log.WithName("metadata"), cfg, bom),
		payload:  payload.NewVerifier(log.WithName("payload"), bom, digest),
		history:  history.NewChecker(log.WithName("history"), cfg),
	}, nil
}

// RunOptions control one run.
type RunOptions struct {
	// Build identifies the build in the history. Without it no history
	// checks run and nothing is saved.
	Build string
	// HistoryPath is the saved build history file.
	HistoryPath string
	// Save persists the run into the history.
	Save bool
	// ScratchDir holds the run directory, the system temp directory if empty.
	ScratchDir string
	// Now stamps the run, time.Now if nil.
	Now func() time.Time
}

// Result is the settled outcome of a run.
type Result struct {
	RunID string
	// Reports holds one report per package type plus the run report.
	Reports map[string]*diag.Report
	// Contexts holds the verification context of every pipeline that reached
	// content verification.
	Contexts map[string]v1alpha1.VerificationContext
	// Aborted holds the structural error of every pipeline that stopped early.
	Aborted map[string]error
	// PreviousBuild is the build compared against, if any.
	PreviousBuild string
	// Record is the saved record, nil when nothing was saved.
	Record *v1alpha1.SavedBuildRecord
}

// Errors returns the error count of the run.
func (r *Result) Errors() int {
	n := 0
	for _, rep := range r.Reports {
		n += rep.Errors()
	}
	return n
}

// Warnings returns the warning count of the run.
func (r *Result) Warnings() int {
	n := 0
	for _, rep := range r.Reports {
		n += rep.Warnings()
	}
	return n
}

type pipelineResult struct {
	report *diag.Report
	vctx   v1alpha1.VerificationContext
	err    error
}

// Run verifies jars. Findings never fail the run; an error is returned only
// for problems that prevent verification as a whole.
func (e *Engine) Run(ctx context.Context, jars []string, opts RunOptions) (*Result, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if opts.Save && (opts.HistoryPath == "" || opts.Build == "") {
		return nil, errors.New("saving a run requires a history file and a build")
	}
	runReport := diag.NewReport(e.log.WithName(RunReport), RunReport)
	assigned := e.assign(runReport, jars)

	var (
		store *history.Store
		saved v1alpha1.BuildHistory
	)
	if opts.HistoryPath != "" {
		store = history.NewStore(opts.HistoryPath)
		var err error
		if saved, err = store.Load(); err != nil {
			return nil, err
		}
	}

	runDir, err := archive.NewRunDir(opts.ScratchDir, now())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := runDir.Remove(); err != nil {
			e.log.Error(err, "Failed to remove run directory", "path", runDir.Path)
		}
	}()
	log := e.log.WithValues("runID", runDir.ID)
	log.Info("Starting verification", "release", e.bom.Release, "archives", len(jars), "build", opts.Build)

	types := e.cfg.PackageTypeList()
	results := make([]pipelineResult, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		report := diag.NewReport(log.WithName(t.Name()), t.Name())
		results[i].report = report
		jar, ok := assigned[t.Name()]
		if !ok {
			continue
		}
		g.Go(func() error {
			dir, err := runDir.Sub(t.Name())
			if err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					results[i].err = fmt.Errorf("pipeline panicked: %v", r)
				}
			}()
			results[i].vctx, results[i].err = e.pipeline(gctx, report, t, jar, dir)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    runDir.ID,
		Reports:  map[string]*diag.Report{RunReport: runReport},
		Contexts: map[string]v1alpha1.VerificationContext{},
		Aborted:  map[string]error{},
	}
	for i, t := range types {
		r := results[i]
		res.Reports[t.Name()] = r.report
		switch {
		case r.err != nil:
			r.report.Errorf(CheckArchive, "verification stopped: %v", r.err)
			res.Aborted[t.Name()] = r.err
		case r.vctx.Class != "":
			res.Contexts[t.Name()] = r.vctx
		}
	}

	if store != nil && opts.Build != "" {
		e.compare(res, saved, opts.Build)
	}

	for name, rep := range res.Reports {
		_, aborted := res.Aborted[name]
		e.metrics.Observe(rep, aborted)
	}

	if opts.Save {
		rec := v1alpha1.SavedBuildRecord{
			Build:       opts.Build,
			ReleaseDate: now().UTC(),
			Errors:      res.Errors(),
			RunID:       runDir.ID,
			JarData:     res.Contexts,
		}
		saved[rec.Build] = rec
		if err := store.Save(saved); err != nil {
			return nil, err
		}
		res.Record = &rec
	}
	log.Info("Verification finished", "errors", res.Errors(), "warnings", res.Warnings(), "aborted", len(res.Aborted))
	return res, nil
}

// assign maps every package type to the single archive matching its file
// name pattern.
func (e *Engine) assign(report *diag.Report, jars []string) map[string]string {
	assigned := map[string]string{}
	matched := map[string]bool{}
	for _, t := range e.cfg.PackageTypeList() {
		for _, jar := range jars {
			if _, ok := t.MatchFile(filepath.Base(jar)); !ok {
				continue
			}
			matched[jar] = true
			if prev, ok := assigned[t.Name()]; ok {
				report.Errorf(CheckArchive, "package type %s matches both %s and %s", t.Name(),
					filepath.Base(prev), filepath.Base(jar))
				continue
			}
			assigned[t.Name()] = jar
		}
		if _, ok := assigned[t.Name()]; !ok {
			report.Errorf(CheckArchive, "no archive for package type %s", t.Name())
		}
	}
	for _, jar := range jars {
		if !matched[jar] {
			report.Errorf(CheckArchive, "archive %s matches no package type", filepath.Base(jar))
		}
	}
	return assigned
}

// compare runs the history checks of every verified package type against the
// build preceding build.
func (e *Engine) compare(res *Result, saved v1alpha1.BuildHistory, build string) {
	prev, ok := history.Previous(saved, build)
	if !ok {
		res.Reports[RunReport].Infof(history.CheckHistory, "no build precedes %s", build)
		return
	}
	res.PreviousBuild = prev.Build
	for name, cur := range res.Contexts {
		old, ok := prev.JarData[name]
		if !ok {
			res.Reports[name].Infof(history.CheckHistory, "build %s has no record of %s", prev.Build, name)
			continue
		}
		e.history.Check(res.Reports[name], cur, old, prev.Build)
	}
}
