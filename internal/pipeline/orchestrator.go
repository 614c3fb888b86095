package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/invoicesheet/internal/config"
	"github.com/dgallion1/invoicesheet/internal/export"
	"github.com/dgallion1/invoicesheet/internal/metrics"
	"github.com/google/uuid"
)

// Request is one conversion: the uploads, the variant and an optional
// password applied to every encrypted file.
type Request struct {
	Variant  Variant
	Uploads  []Upload
	Password string
}

// Converter runs conversions and keeps their results for download.
type Converter struct {
	agg     *Aggregator
	results *ResultStore
	stats   *Stats
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConverter(cfg config.Config, agg *Aggregator, m *metrics.Metrics, log *slog.Logger) *Converter {
	return &Converter{
		agg:     agg,
		results: NewResultStore(cfg.DownloadTTL),
		stats:   NewStats(cfg.StatsWindow),
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches the result store cleanup loop.
func (c *Converter) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	interval := c.cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				c.results.Cleanup()
			}
		}
	}()
}

// Stop halts the cleanup loop and waits for it to exit.
func (c *Converter) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Convert aggregates the uploads, renders the workbook and stores it.
// ErrNoData is returned unwrapped when no table survives.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := c.log.With("variant", req.Variant, "files", len(req.Uploads))

	sum, err := c.agg.Run(ctx, req.Variant, req.Uploads, req.Password)
	c.observe(req.Variant, sum, err, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrNoData) {
			log.Info("no table data", "pages", sum.Pages, "tables", sum.Tables)
		} else {
			log.Error("conversion failed", "error", err)
		}
		return nil, err
	}

	buf, err := export.XLSX(sum.Frame, req.Variant.SheetName())
	if err != nil {
		log.Error("export failed", "error", err)
		return nil, fmt.Errorf("export: %w", err)
	}

	res := &Result{
		ID:             uuid.NewString(),
		Variant:        req.Variant,
		Filename:       req.Variant.Filename(),
		Files:          sum.Files,
		Pages:          sum.Pages,
		Tables:         sum.Tables,
		Rows:           sum.Frame.NumRows(),
		Columns:        sum.Frame.NumCols(),
		RowsDropped:    sum.Report.RowsDropped,
		ColumnsDropped: sum.Report.ColumnsDropped,
		CreatedAt:      time.Now(),
		data:           buf.Bytes(),
		frame:          sum.Frame,
	}
	c.results.Put(res)

	log.Info("conversion complete",
		"result_id", res.ID,
		"rows", res.Rows,
		"columns", res.Columns,
		"rows_dropped", res.RowsDropped,
		"columns_dropped", res.ColumnsDropped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (c *Converter) observe(v Variant, sum *Summary, err error, elapsed time.Duration) {
	c.stats.Record(elapsed.Milliseconds())

	outcome := "ok"
	switch {
	case errors.Is(err, ErrNoData):
		outcome = "no_data"
	case err != nil:
		outcome = "error"
	}
	c.metrics.Conversions.WithLabelValues(string(v), outcome).Inc()
	c.metrics.Duration.WithLabelValues(string(v)).Observe(elapsed.Seconds())

	if sum == nil {
		return
	}
	c.metrics.Files.Add(float64(sum.Files))
	c.metrics.Pages.Add(float64(sum.Pages))
	c.metrics.Tables.Add(float64(sum.Tables))
	c.metrics.Suppressed.WithLabelValues("row").Add(float64(sum.Report.RowsDropped))
	c.metrics.Suppressed.WithLabelValues("column").Add(float64(sum.Report.ColumnsDropped))
	for rule, n := range sum.Report.Hits {
		c.metrics.RuleHits.WithLabelValues(rule.String()).Add(float64(n))
	}
}

// Result returns a stored result by ID.
func (c *Converter) Result(id string) *Result {
	return c.results.Get(id)
}

// Stats returns the conversion latency tracker.
func (c *Converter) Stats() *Stats {
	return c.stats
}
