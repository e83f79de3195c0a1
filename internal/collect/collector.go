// Package collect drives a collection run: fan out fetches against the
// GitHub API, append the audit log, then hand the completed batch to the
// artifact writer. Fetch concurrency stays inside this package; the
// normalization and analysis core only ever sees one completed batch.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/halcyondude/supply-chain-security-collector/internal/github"
	"github.com/halcyondude/supply-chain-security-collector/internal/materialize"
	"github.com/halcyondude/supply-chain-security-collector/internal/targets"
)

// Stats summarizes one collection run.
type Stats struct {
	RunID    string
	Fetched  int
	NotFound int
	Failed   int
}

// Collector fetches targets and materializes the resulting batch.
type Collector struct {
	fetcher     github.Fetcher
	writer      *materialize.Writer
	auditPath   string
	concurrency int
	logger      *slog.Logger
}

// Options configures a Collector.
type Options struct {
	// AuditPath is the NDJSON audit log file; empty disables audit logging.
	AuditPath string
	// Concurrency bounds parallel fetches. Defaults to 4.
	Concurrency int
}

// New returns a Collector.
func New(fetcher github.Fetcher, writer *materialize.Writer, opts Options, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Collector{
		fetcher:     fetcher,
		writer:      writer,
		auditPath:   opts.AuditPath,
		concurrency: opts.Concurrency,
		logger:      logger,
	}
}

// auditRecord is one line of the fetch audit log. Every fetch attempt gets
// a line, failures included; Error carries the transport error text and
// Response stays null for those.
type auditRecord struct {
	Metadata struct {
		QueryType string `json:"query_type"`
		RunID     string `json:"run_id"`
		Timestamp string `json:"timestamp"`
		Owner     string `json:"owner"`
		Repo      string `json:"repo"`
		Error     string `json:"error,omitempty"`
	} `json:"metadata"`
	Response *github.RepoArtifactsResponse `json:"response"`
}

// Run fetches every target, preserving input order in the batch, and writes
// the batch. A target that cannot be resolved contributes a null-repository
// record to the raw tier; a transport failure skips the target. The run
// errors only when storage fails or every fetch failed outright; not-found
// targets alone still produce a written batch.
func (c *Collector) Run(ctx context.Context, tgts []targets.Target, projects []targets.ProjectMeta) (*Stats, error) {
	stats := &Stats{RunID: uuid.NewString()}
	c.logger.Info("starting collection run", "run_id", stats.RunID, "targets", len(tgts))

	audit, err := c.openAudit()
	if err != nil {
		return nil, err
	}
	if audit != nil {
		defer func() { _ = audit.close() }()
	}

	responses := make([]*github.RepoArtifactsResponse, len(tgts))
	failed := make([]bool, len(tgts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, target := range tgts {
		g.Go(func() error {
			resp, err := c.fetcher.Fetch(gctx, target.Owner, target.Name)
			if err != nil {
				c.logger.Warn("fetch failed", "target", target.String(), "error", err)
				failed[i] = true
				if audit != nil {
					audit.append(stats.RunID, target, nil, err)
				}
				return nil
			}
			if resp == nil {
				c.logger.Info("target not found or inaccessible", "target", target.String())
				resp = &github.RepoArtifactsResponse{}
			}
			responses[i] = resp
			if audit != nil {
				audit.append(stats.RunID, target, resp, nil)
			}
			return nil
		})
	}
	// Workers never return errors; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return stats, err
	}

	batch := materialize.Batch{
		Shape:    github.ShapeRepoArtifacts,
		Projects: projects,
	}
	for i, resp := range responses {
		if failed[i] {
			stats.Failed++
			continue
		}
		if resp.Repository == nil {
			stats.NotFound++
		} else {
			stats.Fetched++
		}
		batch.Responses = append(batch.Responses, resp)
	}

	// Not-found targets are resolved answers and still get written; only a
	// run where every single fetch failed has nothing worth persisting.
	if stats.Fetched+stats.NotFound == 0 && len(tgts) > 0 {
		return stats, fmt.Errorf("every fetch failed (%d targets)", stats.Failed)
	}

	if err := c.writer.Write(ctx, batch); err != nil {
		return stats, fmt.Errorf("failed to write batch: %w", err)
	}

	c.logger.Info("collection run complete",
		"run_id", stats.RunID, "fetched", stats.Fetched, "not_found", stats.NotFound, "failed", stats.Failed)
	return stats, nil
}

// auditLog serializes concurrent appends to the NDJSON audit file.
type auditLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	log  *slog.Logger
}

func (c *Collector) openAudit() (*auditLog, error) {
	if c.auditPath == "" {
		return nil, nil
	}
	if dir := filepath.Dir(c.auditPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}
	f, err := os.OpenFile(c.auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &auditLog{file: f, enc: json.NewEncoder(f), log: c.logger}, nil
}

func (l *auditLog) append(runID string, target targets.Target, resp *github.RepoArtifactsResponse, fetchErr error) {
	var rec auditRecord
	rec.Metadata.QueryType = github.ShapeRepoArtifacts
	rec.Metadata.RunID = runID
	rec.Metadata.Timestamp = time.Now().UTC().Format(time.RFC3339)
	rec.Metadata.Owner = target.Owner
	rec.Metadata.Repo = target.Name
	if fetchErr != nil {
		rec.Metadata.Error = fetchErr.Error()
	}
	rec.Response = resp

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(rec); err != nil {
		l.log.Warn("audit log append failed", "target", target.String(), "error", err)
	}
}

func (l *auditLog) close() error {
	return l.file.Close()
}
