package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	portssvc "github.com/keithkandiawan/personal-finance/internal/core/ports/services"
	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type PipelineServiceTestSuite struct {
	suite.Suite
	currencyRepo *MockCurrencyRepository
	mappingRepo  *MockMappingRepository
	accountRepo  *MockAccountRepository
	rateRepo     *MockRateRepository
	snapshotRepo *MockSnapshotRepository
}

func (s *PipelineServiceTestSuite) SetupTest() {
	s.currencyRepo = new(MockCurrencyRepository)
	s.mappingRepo = new(MockMappingRepository)
	s.accountRepo = new(MockAccountRepository)
	s.rateRepo = new(MockRateRepository)
	s.snapshotRepo = new(MockSnapshotRepository)
}

func (s *PipelineServiceTestSuite) buildService(collectors ...portssvc.SourceCollector) *services.PipelineService {
	logger := slog.Default()
	resolver := services.NewResolverService(s.currencyRepo, s.mappingRepo)
	normalizer := services.NewNormalizerService(resolver, s.accountRepo)
	valuer := services.NewValuerService(s.rateRepo, s.currencyRepo, s.accountRepo, "IDR")
	reconciler := services.NewReconcilerService(s.snapshotRepo, logger)
	writer := services.NewSnapshotWriterService(s.snapshotRepo)
	return services.NewPipelineService(collectors, normalizer, valuer, reconciler, writer, logger)
}

// stubReferenceData wires the lookups every valuation pass performs: one BTC
// currency priced at 65000 and one active account.
func (s *PipelineServiceTestSuite) stubReferenceData() {
	btc := &domain.Currency{CurrencyID: "cur-btc", Code: "BTC", Type: domain.CurrencyCrypto}
	s.currencyRepo.On("FindCurrencyByCode", ctxAny, "BTC").Return(btc, nil).Maybe()
	s.currencyRepo.On("ListCurrencies", ctxAny).Return([]domain.Currency{*btc}, nil).Maybe()
	s.accountRepo.On("ListActiveAccounts", ctxAny).Return([]domain.Account{
		{AccountID: "acc-a", Name: "Binance", Type: domain.Asset},
	}, nil).Maybe()
	s.rateRepo.On("ListRates", ctxAny).Return([]domain.RateRecord{
		{CurrencyID: "cur-btc", Rate: decimal.NewFromInt(65000), UpdatedAt: time.Now()},
	}, nil).Maybe()
}

func btcObservation(qty string) domain.Observation {
	return domain.Observation{
		Kind:      domain.SourceExchange,
		AccountID: "acc-a",
		Symbol:    "BTC",
		Quantity:  decimal.RequireFromString(qty),
	}
}

func (s *PipelineServiceTestSuite) TestFullRunSynthesizesZeroBalances() {
	ctx := context.Background()
	s.stubReferenceData()

	exchange := NewMockCollector("binance", domain.SourceExchange)
	exchange.On("Collect", ctxAny).Return([]domain.Observation{btcObservation("1")}, nil).Once()

	// ETH was held last run but is absent now; a full run must zero it.
	s.snapshotRepo.On("ListNonZeroHoldings", ctxAny).Return([]domain.Holding{
		{AccountID: "acc-a", CurrencyID: "cur-btc"},
		{AccountID: "acc-a", CurrencyID: "cur-eth"},
	}, nil).Once()

	var rows []domain.SnapshotRow
	s.snapshotRepo.On("InsertSnapshot", ctxAny, mock.Anything).Run(func(args mock.Arguments) {
		rows = args.Get(1).([]domain.SnapshotRow)
	}).Return(nil).Once()

	report, err := s.buildService(exchange).Run(ctx, services.SelectAll)

	s.Require().NoError(err)
	s.Equal(1, report.Observed)
	s.Equal(1, report.Normalized)
	s.Equal(1, report.ZeroSynthesized)
	s.Equal(2, report.Inserted)

	s.Require().Len(rows, 2)
	s.Equal("cur-btc", rows[0].CurrencyID)
	s.True(rows[0].ValueBase.Equal(decimal.NewFromInt(65000)))
	s.Equal("cur-eth", rows[1].CurrencyID)
	s.True(rows[1].Quantity.IsZero())
}

func (s *PipelineServiceTestSuite) TestPartialRunSkipsReconciliation() {
	ctx := context.Background()
	s.stubReferenceData()

	exchange := NewMockCollector("binance", domain.SourceExchange)
	exchange.On("Collect", ctxAny).Return([]domain.Observation{btcObservation("0.5")}, nil).Once()
	wallet := NewMockCollector("evm", domain.SourceWallet)

	var rows []domain.SnapshotRow
	s.snapshotRepo.On("InsertSnapshot", ctxAny, mock.Anything).Run(func(args mock.Arguments) {
		rows = args.Get(1).([]domain.SnapshotRow)
	}).Return(nil).Once()

	report, err := s.buildService(exchange, wallet).Run(ctx, services.SelectExchanges)

	s.Require().NoError(err)
	s.Zero(report.ZeroSynthesized)
	s.Len(rows, 1)
	s.snapshotRepo.AssertNotCalled(s.T(), "ListNonZeroHoldings", mock.Anything)
	wallet.AssertNotCalled(s.T(), "Collect", mock.Anything)
}

func (s *PipelineServiceTestSuite) TestCollectorFailureRecoveredIntoReport() {
	ctx := context.Background()
	s.stubReferenceData()

	healthy := NewMockCollector("binance", domain.SourceExchange)
	healthy.On("Collect", ctxAny).Return([]domain.Observation{btcObservation("1")}, nil).Once()
	broken := NewMockCollector("kraken", domain.SourceExchange)
	broken.On("Collect", ctxAny).Return(nil, errors.New("api timeout")).Once()

	var rows []domain.SnapshotRow
	s.snapshotRepo.On("InsertSnapshot", ctxAny, mock.Anything).Run(func(args mock.Arguments) {
		rows = args.Get(1).([]domain.SnapshotRow)
	}).Return(nil).Once()

	report, err := s.buildService(broken, healthy).Run(ctx, services.SelectExchanges)

	s.Require().NoError(err)
	s.Equal("api timeout", report.SourceFailures["kraken"])
	s.Equal(1, report.Observed)
	s.Len(rows, 1)
}

func (s *PipelineServiceTestSuite) TestNoObservationsIsNoOp() {
	ctx := context.Background()

	exchange := NewMockCollector("binance", domain.SourceExchange)
	exchange.On("Collect", ctxAny).Return([]domain.Observation{}, nil).Once()

	report, err := s.buildService(exchange).Run(ctx, services.SelectAll)

	s.Require().NoError(err)
	s.Zero(report.Observed)
	s.Zero(report.Inserted)
	s.snapshotRepo.AssertNotCalled(s.T(), "InsertSnapshot", mock.Anything, mock.Anything)
}

func (s *PipelineServiceTestSuite) TestUnmappedRecordDoesNotAbortRun() {
	ctx := context.Background()
	s.stubReferenceData()
	s.currencyRepo.On("FindCurrencyByCode", ctxAny, "MYSTERY").
		Return(nil, apperrors.ErrNotFound).Once()

	exchange := NewMockCollector("binance", domain.SourceExchange)
	exchange.On("Collect", ctxAny).Return([]domain.Observation{
		btcObservation("1"),
		{Kind: domain.SourceExchange, AccountID: "acc-a", Symbol: "MYSTERY", Quantity: decimal.NewFromInt(5)},
	}, nil).Once()

	s.snapshotRepo.On("ListNonZeroHoldings", ctxAny).Return([]domain.Holding{}, nil).Once()
	s.snapshotRepo.On("InsertSnapshot", ctxAny, mock.Anything).Return(nil).Once()

	report, err := s.buildService(exchange).Run(ctx, services.SelectAll)

	s.Require().NoError(err)
	s.Require().Len(report.Unmapped, 1)
	s.Equal("MYSTERY", report.Unmapped[0].Identity)
	s.Equal(domain.ReasonUnknownCurrency, report.Unmapped[0].Reason)
	s.Equal(1, report.Normalized)
}

func TestPipelineServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineServiceTestSuite))
}
