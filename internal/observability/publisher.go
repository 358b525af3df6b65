package observability

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/resume-analyzer/internal/logger"
	"github.com/jonathan/resume-analyzer/internal/types"
	"go.uber.org/zap"
)

// DefaultCollection is the collection diagnostics records are written to
const DefaultCollection = "resumeAnalyzerDiagnostics"

const defaultPublishTimeout = 10 * time.Second

// DiagnosticsStore persists diagnostics records
type DiagnosticsStore interface {
	InsertDiagnostics(ctx context.Context, collection string, record types.DiagnosticsRecord) error
}

// PublisherOptions configures a Publisher
type PublisherOptions struct {
	DevMode    bool
	Collection string
	Store      DiagnosticsStore
	Logger     *zap.Logger
	Timeout    time.Duration
}

// Publisher uploads diagnostics to a DiagnosticsStore in the background.
// It does nothing unless dev mode is enabled and a store is configured.
type Publisher struct {
	opts   PublisherOptions
	logger *zap.Logger
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewPublisher creates a Publisher
func NewPublisher(opts PublisherOptions) *Publisher {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPublishTimeout
	}
	return &Publisher{
		opts:   opts,
		logger: logger.WithStage(opts.Logger, logger.StageDev),
		now:    time.Now,
	}
}

// Enabled reports whether Publish will forward records
func (p *Publisher) Enabled() bool {
	return p != nil && p.opts.DevMode && p.opts.Store != nil
}

// Publish forwards a diagnostics record asynchronously. It never blocks on the
// store and reports whether an upload was started. Upload errors are only logged.
func (p *Publisher) Publish(meta types.DiagnosticsMeta, d types.Diagnostics) bool {
	if !p.Enabled() {
		return false
	}
	if err := meta.Validate(); err != nil {
		p.logger.Warn("invalid diagnostics metadata, skipping upload", zap.Error(err))
		return false
	}

	record := types.NewDiagnosticsRecord(meta, d, p.now())
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.Timeout)
		defer cancel()

		if err := p.opts.Store.InsertDiagnostics(ctx, p.opts.Collection, record); err != nil {
			p.logger.Warn("diagnostics upload failed",
				zap.String("collection", p.opts.Collection),
				zap.String("id", record.ID.String()),
				zap.Error(err))
			return
		}
		p.logger.Debug("diagnostics uploaded",
			zap.String("collection", p.opts.Collection),
			zap.String("id", record.ID.String()))
	}()
	return true
}

// Wait blocks until all started uploads have finished
func (p *Publisher) Wait() {
	if p == nil {
		return
	}
	p.wg.Wait()
}
