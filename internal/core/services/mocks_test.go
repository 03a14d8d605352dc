package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

// ctxAny matches any context argument in expectations.
var ctxAny = mock.Anything

// --- Mock CurrencyRepository ---

type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}

func (m *MockCurrencyRepository) SetParentCurrency(ctx context.Context, currencyID, parentCurrencyID string) error {
	args := m.Called(ctx, currencyID, parentCurrencyID)
	return args.Error(0)
}

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) FindCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListChildCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) CurrencyTypeExists(ctx context.Context, t domain.CurrencyType) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// --- Mock MappingRepository ---

type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) ListSymbolMappings(ctx context.Context, source string) ([]domain.SymbolMapping, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SymbolMapping), args.Error(1)
}

func (m *MockMappingRepository) SaveSymbolMapping(ctx context.Context, sm domain.SymbolMapping) error {
	args := m.Called(ctx, sm)
	return args.Error(0)
}

func (m *MockMappingRepository) FindContractMapping(ctx context.Context, network, contractAddress string) (*domain.ContractMapping, error) {
	args := m.Called(ctx, network, contractAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContractMapping), args.Error(1)
}

func (m *MockMappingRepository) FindNativeMapping(ctx context.Context, network string) (*domain.ContractMapping, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContractMapping), args.Error(1)
}

func (m *MockMappingRepository) SaveContractMapping(ctx context.Context, cm domain.ContractMapping) error {
	args := m.Called(ctx, cm)
	return args.Error(0)
}

func (m *MockMappingRepository) ListContractMappings(ctx context.Context, network string) ([]domain.ContractMapping, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContractMapping), args.Error(1)
}

// --- Mock NetworkRepository ---

type MockNetworkRepository struct {
	mock.Mock
}

func (m *MockNetworkRepository) SaveNetwork(ctx context.Context, network domain.Network) error {
	args := m.Called(ctx, network)
	return args.Error(0)
}

func (m *MockNetworkRepository) ListActiveEVMNetworks(ctx context.Context) ([]domain.Network, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Network), args.Error(1)
}

func (m *MockNetworkRepository) SaveWalletAddress(ctx context.Context, addr domain.WalletAddress) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *MockNetworkRepository) ListActiveWalletAddresses(ctx context.Context) ([]domain.WalletAddress, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WalletAddress), args.Error(1)
}

// --- Mock RateRepository ---

type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) UpsertRate(ctx context.Context, rate domain.RateRecord) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateRepository) FindRate(ctx context.Context, currencyID string) (*domain.RateRecord, error) {
	args := m.Called(ctx, currencyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateRecord), args.Error(1)
}

func (m *MockRateRepository) ListRates(ctx context.Context) ([]domain.RateRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateRecord), args.Error(1)
}

func (m *MockRateRepository) ListStaleRates(ctx context.Context, olderThan time.Duration) ([]domain.StaleRate, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StaleRate), args.Error(1)
}

// --- Mock SnapshotRepository ---

type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) InsertSnapshot(ctx context.Context, rows []domain.SnapshotRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockSnapshotRepository) ListNonZeroHoldings(ctx context.Context) ([]domain.Holding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Holding), args.Error(1)
}

func (m *MockSnapshotRepository) ListLatestBalances(ctx context.Context) ([]domain.LatestBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LatestBalance), args.Error(1)
}

func (m *MockSnapshotRepository) UpsertNetWorthSummary(ctx context.Context, summary domain.NetWorthSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSnapshotRepository) ListNetWorthHistory(ctx context.Context, limit int) ([]domain.NetWorthSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NetWorthSummary), args.Error(1)
}

// --- Mock QuoteClient ---

type MockQuoteClient struct {
	mock.Mock
}

func (m *MockQuoteClient) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock SourceCollector ---

type MockCollector struct {
	mock.Mock
	name string
	kind domain.SourceKind
}

func NewMockCollector(name string, kind domain.SourceKind) *MockCollector {
	return &MockCollector{name: name, kind: kind}
}

func (m *MockCollector) Name() string            { return m.name }
func (m *MockCollector) Kind() domain.SourceKind { return m.kind }

func (m *MockCollector) Collect(ctx context.Context) ([]domain.Observation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Observation), args.Error(1)
}
