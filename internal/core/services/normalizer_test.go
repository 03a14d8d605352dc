package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
	"github.com/keithkandiawan/personal-finance/internal/core/services"
)

type NormalizerServiceTestSuite struct {
	suite.Suite
	currencyRepo *MockCurrencyRepository
	mappingRepo  *MockMappingRepository
	accountRepo  *MockAccountRepository
	service      *services.NormalizerService
}

func (s *NormalizerServiceTestSuite) SetupTest() {
	s.currencyRepo = new(MockCurrencyRepository)
	s.mappingRepo = new(MockMappingRepository)
	s.accountRepo = new(MockAccountRepository)
	resolver := services.NewResolverService(s.currencyRepo, s.mappingRepo)
	s.service = services.NewNormalizerService(resolver, s.accountRepo)
}

func (s *NormalizerServiceTestSuite) TestSummationMerge() {
	ctx := context.Background()
	btc := &domain.Currency{CurrencyID: "cur-btc", Code: "BTC"}

	s.currencyRepo.On("FindCurrencyByCode", ctx, "BTC").Return(btc, nil).Twice()

	balances, unmapped, err := s.service.Normalize(ctx, []domain.Observation{
		{Kind: domain.SourceExchange, AccountID: "acc-a", Symbol: "BTC", Quantity: decimal.RequireFromString("0.5")},
		{Kind: domain.SourceExchange, AccountID: "acc-a", Symbol: "BTC", Quantity: decimal.RequireFromString("0.25")},
	})

	s.Require().NoError(err)
	s.Empty(unmapped)
	s.Require().Len(balances, 1)
	s.Equal("acc-a", balances[0].AccountID)
	s.Equal("cur-btc", balances[0].CurrencyID)
	s.True(balances[0].Quantity.Equal(decimal.RequireFromString("0.75")),
		"expected 0.75, got %s", balances[0].Quantity)
}

func (s *NormalizerServiceTestSuite) TestDistinctPairsStayDistinct() {
	ctx := context.Background()
	btc := &domain.Currency{CurrencyID: "cur-btc", Code: "BTC"}
	eth := &domain.Currency{CurrencyID: "cur-eth", Code: "ETH"}

	s.currencyRepo.On("FindCurrencyByCode", ctx, "BTC").Return(btc, nil).Once()
	s.currencyRepo.On("FindCurrencyByCode", ctx, "ETH").Return(eth, nil).Once()

	balances, _, err := s.service.Normalize(ctx, []domain.Observation{
		{AccountID: "acc-a", Symbol: "BTC", Quantity: decimal.NewFromInt(1)},
		{AccountID: "acc-a", Symbol: "ETH", Quantity: decimal.NewFromInt(2)},
	})

	s.Require().NoError(err)
	s.Len(balances, 2)
}

func (s *NormalizerServiceTestSuite) TestUnknownCurrencyExcludedNotFatal() {
	ctx := context.Background()
	btc := &domain.Currency{CurrencyID: "cur-btc", Code: "BTC"}

	s.currencyRepo.On("FindCurrencyByCode", ctx, "BTC").Return(btc, nil).Once()
	s.currencyRepo.On("FindCurrencyByCode", ctx, "MYSTERY").Return(nil, apperrors.ErrNotFound).Once()

	balances, unmapped, err := s.service.Normalize(ctx, []domain.Observation{
		{AccountID: "acc-a", AccountName: "Binance", Symbol: "MYSTERY", Quantity: decimal.NewFromInt(5)},
		{AccountID: "acc-a", Symbol: "BTC", Quantity: decimal.NewFromInt(1)},
	})

	s.Require().NoError(err)
	s.Len(balances, 1)
	s.Require().Len(unmapped, 1)
	s.Equal(domain.ReasonUnknownCurrency, unmapped[0].Reason)
	s.Equal("MYSTERY", unmapped[0].Identity)
}

func (s *NormalizerServiceTestSuite) TestUnknownAccountNameReported() {
	ctx := context.Background()

	s.accountRepo.On("FindAccountByName", ctx, "Ghost Bank").Return(nil, apperrors.ErrNotFound).Once()

	balances, unmapped, err := s.service.Normalize(ctx, []domain.Observation{
		{Kind: domain.SourceFiat, AccountName: "Ghost Bank", Symbol: "USD", Quantity: decimal.NewFromInt(100)},
	})

	s.Require().NoError(err)
	s.Empty(balances)
	s.Require().Len(unmapped, 1)
	s.Equal(domain.ReasonUnknownAccount, unmapped[0].Reason)
	s.Equal("Ghost Bank", unmapped[0].AccountName)
}

func (s *NormalizerServiceTestSuite) TestAccountNameResolution() {
	ctx := context.Background()
	account := &domain.Account{AccountID: "acc-bank", Name: "Main Bank"}
	usd := &domain.Currency{CurrencyID: "cur-usd", Code: "USD"}

	s.accountRepo.On("FindAccountByName", ctx, "Main Bank").Return(account, nil).Once()
	s.currencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(usd, nil).Once()

	balances, _, err := s.service.Normalize(ctx, []domain.Observation{
		{Kind: domain.SourceFiat, AccountName: "Main Bank", Symbol: "USD", Quantity: decimal.NewFromInt(100)},
	})

	s.Require().NoError(err)
	s.Require().Len(balances, 1)
	s.Equal("acc-bank", balances[0].AccountID)
}

func (s *NormalizerServiceTestSuite) TestWalletIdentitiesResolved() {
	ctx := context.Background()
	usdcMapping := &domain.ContractMapping{CurrencyID: "cur-usdc", Network: "polygon", ContractAddress: "0xusdc"}
	nativeMapping := &domain.ContractMapping{CurrencyID: "cur-pol", Network: "polygon", IsNative: true}
	usdc := &domain.Currency{CurrencyID: "cur-usdc", Code: "USDC"}
	pol := &domain.Currency{CurrencyID: "cur-pol", Code: "POL"}

	s.mappingRepo.On("FindContractMapping", ctx, "polygon", "0xusdc").Return(usdcMapping, nil).Once()
	s.mappingRepo.On("FindNativeMapping", ctx, "polygon").Return(nativeMapping, nil).Once()
	s.currencyRepo.On("FindCurrencyByID", ctx, "cur-usdc").Return(usdc, nil).Once()
	s.currencyRepo.On("FindCurrencyByID", ctx, "cur-pol").Return(pol, nil).Once()

	balances, unmapped, err := s.service.Normalize(ctx, []domain.Observation{
		{Kind: domain.SourceWallet, AccountID: "acc-w", Network: "polygon", ContractAddress: "0xUSDC", Quantity: decimal.NewFromInt(10)},
		{Kind: domain.SourceWallet, AccountID: "acc-w", Network: "polygon", IsNative: true, Quantity: decimal.NewFromInt(3)},
	})

	s.Require().NoError(err)
	s.Empty(unmapped)
	s.Len(balances, 2)
}

func TestNormalizerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NormalizerServiceTestSuite))
}
