package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portsrepo "github.com/keithkandiawan/personal-finance/internal/core/ports/repositories"
)

// SnapshotWriterService commits the final balance set of a run as one
// timestamped snapshot. The commit is all-or-nothing: the repository inserts
// every row inside a single transaction, and any per-row error rolls the
// whole snapshot back.
type SnapshotWriterService struct {
	snapshotRepo portsrepo.SnapshotRepository
}

func NewSnapshotWriterService(snapshotRepo portsrepo.SnapshotRepository) *SnapshotWriterService {
	return &SnapshotWriterService{snapshotRepo: snapshotRepo}
}

// Write persists one row per (account, currency) under the run timestamp.
// Unvaluable records are excluded. Duplicate keys surviving upstream merges
// are aggregated by summation rather than inserted twice for the same
// timestamp, keeping retried or double-merged input idempotent in shape.
// Returns the number of rows committed.
func (s *SnapshotWriterService) Write(ctx context.Context, valued []domain.ValuedBalance, timestamp time.Time) (int, error) {
	merged := make(map[domain.Holding]domain.ValuedBalance, len(valued))
	order := make([]domain.Holding, 0, len(valued))

	for _, v := range valued {
		if !v.Valuable() {
			continue
		}
		key := domain.Holding{AccountID: v.AccountID, CurrencyID: v.CurrencyID}
		existing, ok := merged[key]
		if !ok {
			merged[key] = v
			order = append(order, key)
			continue
		}
		existing.Quantity = existing.Quantity.Add(v.Quantity)
		sum := existing.ValueBase.Add(*v.ValueBase)
		existing.ValueBase = &sum
		if existing.ValueSecondary != nil && v.ValueSecondary != nil {
			sumSecondary := existing.ValueSecondary.Add(*v.ValueSecondary)
			existing.ValueSecondary = &sumSecondary
		} else {
			existing.ValueSecondary = nil
		}
		merged[key] = existing
	}

	if len(merged) == 0 {
		return 0, nil
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].AccountID != order[j].AccountID {
			return order[i].AccountID < order[j].AccountID
		}
		return order[i].CurrencyID < order[j].CurrencyID
	})

	rows := make([]domain.SnapshotRow, 0, len(merged))
	for _, key := range order {
		v := merged[key]
		rows = append(rows, domain.SnapshotRow{
			Timestamp:      timestamp,
			AccountID:      v.AccountID,
			CurrencyID:     v.CurrencyID,
			Quantity:       v.Quantity,
			ValueBase:      v.ValueBase,
			ValueSecondary: v.ValueSecondary,
		})
	}

	if err := s.snapshotRepo.InsertSnapshot(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return len(rows), nil
}
