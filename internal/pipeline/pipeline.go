// Package pipeline loads ballot files, tallies them and renders the results.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/duke1swd/Voting/internal/ballot"
	"github.com/duke1swd/Voting/internal/cache"
	"github.com/duke1swd/Voting/internal/model"
	"github.com/duke1swd/Voting/internal/tally"
)

// Pipeline runs one election at a time from source to report
type Pipeline struct {
	loader *Loader
	parser *ballot.Parser
	engine *tally.Engine
	cache  *cache.ReportCache // nil when caching is disabled
	config *model.Config
	logger *slog.Logger
}

// NewPipeline creates a pipeline. stdin is read for the "-" source.
func NewPipeline(cfg *model.Config, stdin io.Reader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy).
		withLimiter(cfg.HTTP.RateLimit, cfg.HTTP.Burst)

	return &Pipeline{
		loader: NewLoader(fetcher, stdin, cfg.HTTP.MaxBodyBytes),
		parser: ballot.NewParser(cfg.Input.Mode),
		engine: tally.NewEngine(cfg.Tally, logger),
		cache:  cache.FromConfig(cfg.Cache, logger),
		config: cfg,
		logger: logger,
	}
}

// Result is the outcome of one election
type Result struct {
	Source string
	Matrix *model.VoteMatrix
	Report *model.Report
	Cached bool
}

// Run loads, parses and tallies source
func (p *Pipeline) Run(ctx context.Context, source string) (*Result, error) {
	data, err := p.loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load ballots: %w", err)
	}
	p.logger.Debug("loaded ballots", "source", source, "bytes", len(data))

	m, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ballots: %w", err)
	}
	p.logger.Info("parsed ballots", "source", source, "candidates", m.NumCandidates(), "voters", m.NumVoters())

	return p.Tally(source, m)
}

// Tally ranks an already parsed matrix, using the cache when enabled
func (p *Pipeline) Tally(source string, m *model.VoteMatrix) (*Result, error) {
	var key string
	if p.cache != nil {
		k, err := cache.Key(m, p.config.Tally)
		if err != nil {
			p.logger.Warn("cache key unavailable", "error", err)
		} else {
			key = k
			if report, found := p.cache.Lookup(key); found {
				p.logger.Info("using cached report", "source", source, "key", key)
				return &Result{Source: source, Matrix: m, Report: report, Cached: true}, nil
			}
		}
	}

	report, err := p.engine.Tally(m)
	if err != nil {
		return nil, fmt.Errorf("tally: %w", err)
	}
	p.logger.Info("tallied", "source", source, "rows", len(report.Rows), "tie", report.HasTie())

	if key != "" {
		if err := p.cache.Store(key, report); err != nil {
			p.logger.Warn("failed to cache report", "key", key, "error", err)
		}
	}

	return &Result{Source: source, Matrix: m, Report: report}, nil
}
