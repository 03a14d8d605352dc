package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type ReconcilerServiceTestSuite struct {
	suite.Suite
	snapshotRepo *MockSnapshotRepository
	service      *services.ReconcilerService
}

func (s *ReconcilerServiceTestSuite) SetupTest() {
	s.snapshotRepo = new(MockSnapshotRepository)
	s.service = services.NewReconcilerService(s.snapshotRepo, slog.Default())
}

func valuedBalance(accountID, currencyID, quantity, valueBase string) domain.ValuedBalance {
	base := decimal.RequireFromString(valueBase)
	return domain.ValuedBalance{
		Balance: domain.Balance{
			AccountID:  accountID,
			CurrencyID: currencyID,
			Quantity:   decimal.RequireFromString(quantity),
		},
		ValueBase: &base,
	}
}

func (s *ReconcilerServiceTestSuite) TestDisappearedHoldingZeroed() {
	ctx := context.Background()

	s.snapshotRepo.On("ListNonZeroHoldings", ctx).Return([]domain.Holding{
		{AccountID: "acc-a", CurrencyID: "cur-eth"},
		{AccountID: "acc-a", CurrencyID: "cur-btc"},
	}, nil).Once()

	current := []domain.ValuedBalance{valuedBalance("acc-a", "cur-btc", "1", "65000")}
	out, synthesized, err := s.service.Reconcile(ctx, current)

	s.Require().NoError(err)
	s.Equal(1, synthesized)
	s.Require().Len(out, 2)

	zero := out[1]
	s.Equal("acc-a", zero.AccountID)
	s.Equal("cur-eth", zero.CurrencyID)
	s.True(zero.Quantity.IsZero())
	s.Require().NotNil(zero.ValueBase)
	s.True(zero.ValueBase.IsZero())
	s.Require().NotNil(zero.ValueSecondary)
	s.True(zero.ValueSecondary.IsZero())
}

func (s *ReconcilerServiceTestSuite) TestStillHeldPairNotZeroed() {
	ctx := context.Background()

	s.snapshotRepo.On("ListNonZeroHoldings", ctx).Return([]domain.Holding{
		{AccountID: "acc-a", CurrencyID: "cur-btc"},
	}, nil).Once()

	current := []domain.ValuedBalance{valuedBalance("acc-a", "cur-btc", "1", "65000")}
	out, synthesized, err := s.service.Reconcile(ctx, current)

	s.Require().NoError(err)
	s.Zero(synthesized)
	s.Len(out, 1)
}

func (s *ReconcilerServiceTestSuite) TestUnvaluableHoldingNotMistakenForSold() {
	ctx := context.Background()

	s.snapshotRepo.On("ListNonZeroHoldings", ctx).Return([]domain.Holding{
		{AccountID: "acc-a", CurrencyID: "cur-doge"},
	}, nil).Once()

	// DOGE is present this run but had no rate; it must not be zeroed.
	current := []domain.ValuedBalance{{
		Balance: domain.Balance{AccountID: "acc-a", CurrencyID: "cur-doge", Quantity: decimal.NewFromInt(1000)},
	}}
	out, synthesized, err := s.service.Reconcile(ctx, current)

	s.Require().NoError(err)
	s.Zero(synthesized)
	s.Len(out, 1)
}

func TestReconcilerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerServiceTestSuite))
}
