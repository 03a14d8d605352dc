package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type RateRefreshServiceTestSuite struct {
	suite.Suite
	mappingRepo  *MockMappingRepository
	rateRepo     *MockRateRepository
	currencyRepo *MockCurrencyRepository
	quotes       *MockQuoteClient
	service      *services.RateRefreshService
}

func (s *RateRefreshServiceTestSuite) SetupTest() {
	s.mappingRepo = new(MockMappingRepository)
	s.rateRepo = new(MockRateRepository)
	s.currencyRepo = new(MockCurrencyRepository)
	s.quotes = new(MockQuoteClient)
	propagator := services.NewRatePropagatorService(s.currencyRepo, s.rateRepo, slog.Default())
	s.service = services.NewRateRefreshService(s.mappingRepo, s.rateRepo, s.quotes, propagator, "tradingview", slog.Default())
}

// stubCycleTail covers the propagation and staleness steps that close every
// refresh cycle.
func (s *RateRefreshServiceTestSuite) stubCycleTail() {
	s.currencyRepo.On("ListChildCurrencies", ctxAny).Return([]domain.Currency{}, nil).Maybe()
	s.rateRepo.On("ListStaleRates", ctxAny, services.StaleRateWindow).Return([]domain.StaleRate{}, nil).Maybe()
}

func (s *RateRefreshServiceTestSuite) TestDirectQuoteStoredAsIs() {
	ctx := context.Background()
	s.stubCycleTail()

	s.mappingRepo.On("ListSymbolMappings", ctxAny, "tradingview").Return([]domain.SymbolMapping{
		{CurrencyID: "cur-btc", Source: "tradingview", Symbol: "BINANCE:BTCUSDT"},
	}, nil).Once()
	s.quotes.On("FetchPrice", ctxAny, "BINANCE:BTCUSDT").Return(decimal.NewFromInt(65000), nil).Once()

	var saved domain.RateRecord
	s.rateRepo.On("UpsertRate", ctxAny, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(domain.RateRecord)
	}).Return(nil).Once()

	result, err := s.service.Refresh(ctx)

	s.Require().NoError(err)
	s.Equal(1, result.Fetched)
	s.Empty(result.Failed)
	s.Equal("cur-btc", saved.CurrencyID)
	s.True(saved.Rate.Equal(decimal.NewFromInt(65000)))
	s.Equal("tradingview", saved.Source)
}

func (s *RateRefreshServiceTestSuite) TestInvertedQuoteStoredAsReciprocal() {
	ctx := context.Background()
	s.stubCycleTail()

	s.mappingRepo.On("ListSymbolMappings", ctxAny, "tradingview").Return([]domain.SymbolMapping{
		{CurrencyID: "cur-idr", Source: "tradingview", Symbol: "FX_IDC:USDIDR", IsInverted: true},
	}, nil).Once()
	s.quotes.On("FetchPrice", ctxAny, "FX_IDC:USDIDR").Return(decimal.NewFromInt(15800), nil).Once()

	var saved domain.RateRecord
	s.rateRepo.On("UpsertRate", ctxAny, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(domain.RateRecord)
	}).Return(nil).Once()

	result, err := s.service.Refresh(ctx)

	s.Require().NoError(err)
	s.Equal(1, result.Fetched)
	// A 15800 IDR-per-USD quote stores as USD-per-IDR.
	expected := decimal.NewFromInt(1).Div(decimal.NewFromInt(15800))
	s.True(saved.Rate.Equal(expected))
}

func (s *RateRefreshServiceTestSuite) TestZeroInvertedQuoteSkipped() {
	ctx := context.Background()
	s.stubCycleTail()

	s.mappingRepo.On("ListSymbolMappings", ctxAny, "tradingview").Return([]domain.SymbolMapping{
		{CurrencyID: "cur-idr", Source: "tradingview", Symbol: "FX_IDC:USDIDR", IsInverted: true},
	}, nil).Once()
	s.quotes.On("FetchPrice", ctxAny, "FX_IDC:USDIDR").Return(decimal.Zero, nil).Once()

	result, err := s.service.Refresh(ctx)

	s.Require().NoError(err)
	s.Zero(result.Fetched)
	s.Equal([]string{"FX_IDC:USDIDR"}, result.Failed)
	s.rateRepo.AssertNotCalled(s.T(), "UpsertRate", mock.Anything, mock.Anything)
}

func (s *RateRefreshServiceTestSuite) TestFailedSymbolDoesNotAbortCycle() {
	ctx := context.Background()
	s.stubCycleTail()

	s.mappingRepo.On("ListSymbolMappings", ctxAny, "tradingview").Return([]domain.SymbolMapping{
		{CurrencyID: "cur-obscure", Source: "tradingview", Symbol: "OBSCURE"},
		{CurrencyID: "cur-eth", Source: "tradingview", Symbol: "BINANCE:ETHUSDT"},
	}, nil).Once()
	s.quotes.On("FetchPrice", ctxAny, "OBSCURE").Return(decimal.Zero, apperrors.ErrNotFound).Once()
	s.quotes.On("FetchPrice", ctxAny, "BINANCE:ETHUSDT").Return(decimal.NewFromInt(3200), nil).Once()
	s.rateRepo.On("UpsertRate", ctxAny, mock.Anything).Return(nil).Once()

	result, err := s.service.Refresh(ctx)

	s.Require().NoError(err)
	s.Equal(1, result.Fetched)
	s.Equal([]string{"OBSCURE"}, result.Failed)
}

func (s *RateRefreshServiceTestSuite) TestPropagationRunsAfterFetch() {
	ctx := context.Background()

	s.mappingRepo.On("ListSymbolMappings", ctxAny, "tradingview").Return([]domain.SymbolMapping{
		{CurrencyID: "cur-btc", Source: "tradingview", Symbol: "BINANCE:BTCUSDT"},
	}, nil).Once()
	s.quotes.On("FetchPrice", ctxAny, "BINANCE:BTCUSDT").Return(decimal.NewFromInt(65000), nil).Once()

	// WBTC tracks BTC and must inherit its fresh rate.
	s.currencyRepo.On("ListChildCurrencies", ctxAny).Return([]domain.Currency{
		{CurrencyID: "cur-wbtc", Code: "WBTC", ParentCurrencyID: "cur-btc"},
	}, nil).Once()
	s.currencyRepo.On("FindCurrencyByID", ctxAny, "cur-btc").Return(
		&domain.Currency{CurrencyID: "cur-btc", Code: "BTC"}, nil).Maybe()
	s.rateRepo.On("FindRate", ctxAny, "cur-btc").Return(&domain.RateRecord{
		CurrencyID: "cur-btc",
		Rate:       decimal.NewFromInt(65000),
		Source:     "tradingview",
		UpdatedAt:  time.Now(),
	}, nil).Once()
	s.rateRepo.On("UpsertRate", ctxAny, mock.Anything).Return(nil).Times(2)
	s.rateRepo.On("ListStaleRates", ctxAny, services.StaleRateWindow).Return([]domain.StaleRate{}, nil).Once()

	result, err := s.service.Refresh(ctx)

	s.Require().NoError(err)
	s.Equal(1, result.Fetched)
	s.Equal(1, result.Propagated)
}

func (s *RateRefreshServiceTestSuite) TestStaleRatesSurfaced() {
	ctx := context.Background()

	s.mappingRepo.On("ListSymbolMappings", ctxAny, "tradingview").Return([]domain.SymbolMapping{}, nil).Once()
	s.currencyRepo.On("ListChildCurrencies", ctxAny).Return([]domain.Currency{}, nil).Once()
	s.rateRepo.On("ListStaleRates", ctxAny, services.StaleRateWindow).Return([]domain.StaleRate{
		{CurrencyCode: "XAU", Source: "tradingview", Age: 48 * time.Hour},
	}, nil).Once()

	result, err := s.service.Refresh(ctx)

	s.Require().NoError(err)
	s.Require().Len(result.Stale, 1)
	s.Equal("XAU", result.Stale[0].CurrencyCode)
}

func TestRateRefreshServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateRefreshServiceTestSuite))
}
