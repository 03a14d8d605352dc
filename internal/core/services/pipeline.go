package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portssvc "github.com/keithkandiawan/personal-finance/internal/core/ports/services"
)

// SourceSelector restricts which collector families run in one ingestion
// run. Reconciliation is only permitted on a full run: a partial run cannot
// distinguish "asset gone" from "source not queried".
type SourceSelector string

const (
	SelectAll       SourceSelector = "all"
	SelectExchanges SourceSelector = "exchanges"
	SelectWallets   SourceSelector = "wallets"
	SelectFiat      SourceSelector = "fiat"
)

// IsFull reports whether the selector covers every configured source.
func (s SourceSelector) IsFull() bool { return s == SelectAll }

func (s SourceSelector) includes(kind domain.SourceKind) bool {
	switch s {
	case SelectAll:
		return true
	case SelectExchanges:
		return kind == domain.SourceExchange
	case SelectWallets:
		return kind == domain.SourceWallet
	case SelectFiat:
		return kind == domain.SourceFiat
	}
	return false
}

// PipelineService orchestrates one ingestion run: collect from each selected
// source, normalize, value, reconcile (full runs only), and commit the
// snapshot. Collectors run sequentially; a failing collector contributes
// nothing for this run and is surfaced in the run report as a warning rather
// than aborting the run.
type PipelineService struct {
	collectors []portssvc.SourceCollector
	normalizer *NormalizerService
	valuer     *ValuerService
	reconciler *ReconcilerService
	writer     *SnapshotWriterService
	logger     *slog.Logger
}

func NewPipelineService(
	collectors []portssvc.SourceCollector,
	normalizer *NormalizerService,
	valuer *ValuerService,
	reconciler *ReconcilerService,
	writer *SnapshotWriterService,
	logger *slog.Logger,
) *PipelineService {
	return &PipelineService{
		collectors: collectors,
		normalizer: normalizer,
		valuer:     valuer,
		reconciler: reconciler,
		writer:     writer,
		logger:     logger,
	}
}

// Run executes one ingestion run and returns its report. The returned error
// is fatal (configuration or persistence); per-source and per-record
// failures are recovered into the report instead.
func (p *PipelineService) Run(ctx context.Context, selector SourceSelector) (*domain.RunReport, error) {
	report := &domain.RunReport{
		Sources:        string(selector),
		StartedAt:      time.Now(),
		SourceFailures: make(map[string]string),
	}

	var observations []domain.Observation
	for _, collector := range p.collectors {
		if !selector.includes(collector.Kind()) {
			continue
		}
		p.logger.Info("collecting", slog.String("source", collector.Name()))
		collected, err := collector.Collect(ctx)
		if err != nil {
			p.logger.Error("source collection failed",
				slog.String("source", collector.Name()),
				slog.String("error", err.Error()))
			report.SourceFailures[collector.Name()] = err.Error()
			continue
		}
		p.logger.Info("collected",
			slog.String("source", collector.Name()),
			slog.Int("observations", len(collected)))
		observations = append(observations, collected...)
	}
	report.Observed = len(observations)

	if len(observations) == 0 {
		p.logger.Warn("no balances fetched from any source")
		report.FinishedAt = time.Now()
		p.logSummary(report)
		return report, nil
	}

	balances, unmapped, err := p.normalizer.Normalize(ctx, observations)
	if err != nil {
		return report, fmt.Errorf("normalization failed: %w", err)
	}
	report.Normalized = len(balances)
	report.Unmapped = unmapped

	valued, unvaluable, err := p.valuer.Value(ctx, balances)
	if err != nil {
		return report, fmt.Errorf("valuation failed: %w", err)
	}
	report.Unvaluable = unvaluable

	if selector.IsFull() {
		valued, report.ZeroSynthesized, err = p.reconciler.Reconcile(ctx, valued)
		if err != nil {
			return report, fmt.Errorf("reconciliation failed: %w", err)
		}
	} else {
		p.logger.Info("skipping zero-balance reconciliation on partial run",
			slog.String("sources", string(selector)))
	}

	timestamp := time.Now()
	report.Inserted, err = p.writer.Write(ctx, valued, timestamp)
	if err != nil {
		return report, err
	}

	report.FinishedAt = time.Now()
	p.logSummary(report)
	return report, nil
}

func (p *PipelineService) logSummary(report *domain.RunReport) {
	attrs := []any{
		slog.String("sources", report.Sources),
		slog.Int("observed", report.Observed),
		slog.Int("normalized", report.Normalized),
		slog.Int("inserted", report.Inserted),
		slog.Int("zero_synthesized", report.ZeroSynthesized),
		slog.Int("excluded", report.Excluded()),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	}
	p.logger.Info("ingestion run complete", attrs...)

	for reason, count := range report.CountByReason() {
		p.logger.Warn("records excluded", slog.String("reason", string(reason)), slog.Int("count", count))
	}
	for _, record := range report.Unmapped {
		p.logger.Warn("unmapped record",
			slog.String("account", record.AccountName),
			slog.String("identity", record.Identity),
			slog.String("reason", string(record.Reason)))
	}
	for _, record := range report.Unvaluable {
		p.logger.Warn("unvaluable record",
			slog.String("account", record.AccountName),
			slog.String("currency", record.Identity))
	}
	for source, failure := range report.SourceFailures {
		p.logger.Warn("source failed this run",
			slog.String("source", source),
			slog.String("error", failure))
	}
}
