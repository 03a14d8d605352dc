// Package evm reads wallet balances and token metadata from EVM chains over
// JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/keithkandiawan/personal-finance/internal/apperrors"
	"github.com/keithkandiawan/personal-finance/internal/core/domain"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// scanWindow bounds the Transfer-log lookback during token discovery. Public
// RPC endpoints reject unbounded ranges.
const scanWindow = 500_000

// Client is one verified JSON-RPC connection to an EVM network.
type Client struct {
	eth     *ethclient.Client
	network string
	abi     abi.ABI
}

// Dial connects to the network's RPC endpoint and verifies the reported
// chain id against the configured one, refusing to read balances from the
// wrong chain.
func Dial(ctx context.Context, network domain.Network) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, network.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", network.Code, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to read chain id of %s: %w", network.Code, err)
	}
	if chainID.Int64() != network.ChainID {
		eth.Close()
		return nil, fmt.Errorf("%w: %s chain id mismatch, expected %d got %s",
			apperrors.ErrConfiguration, network.Code, network.ChainID, chainID)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	return &Client{eth: eth, network: network.Code, abi: parsed}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// NativeBalance reads the raw native-token balance of an address.
func (c *Client) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read native balance of %s on %s: %w", address, c.network, err)
	}
	return balance, nil
}

// ERC20Balance reads the raw balanceOf(wallet) of a token contract.
func (c *Client) ERC20Balance(ctx context.Context, contract, wallet string) (*big.Int, error) {
	input, err := c.abi.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	output, err := c.call(ctx, contract, input)
	if err != nil {
		return nil, err
	}

	var balance *big.Int
	if err := c.abi.UnpackIntoInterface(&balance, "balanceOf", output); err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf from %s: %w", contract, err)
	}
	return balance, nil
}

// Metadata reads symbol, name and decimals of a token contract. A contract
// that does not answer the calls maps to apperrors.ErrNotFound; discovery
// skips it.
func (c *Client) Metadata(ctx context.Context, contract string) (*domain.TokenMetadata, error) {
	symbol, err := c.callString(ctx, contract, "symbol")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no readable symbol: %v", apperrors.ErrNotFound, contract, err)
	}
	name, err := c.callString(ctx, contract, "name")
	if err != nil {
		name = symbol
	}

	input, err := c.abi.Pack("decimals")
	if err != nil {
		return nil, fmt.Errorf("failed to pack decimals: %w", err)
	}
	output, err := c.call(ctx, contract, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no readable decimals: %v", apperrors.ErrNotFound, contract, err)
	}
	var decimals uint8
	if err := c.abi.UnpackIntoInterface(&decimals, "decimals", output); err != nil {
		return nil, fmt.Errorf("failed to unpack decimals from %s: %w", contract, err)
	}

	return &domain.TokenMetadata{
		ContractAddress: strings.ToLower(contract),
		Symbol:          symbol,
		Name:            name,
		Decimals:        int32(decimals),
	}, nil
}

// ScanTransfers lists token contracts that emitted a Transfer to the wallet
// within the lookback window. These are the discovery candidates; holding is
// verified later through balanceOf.
func (c *Client) ScanTransfers(ctx context.Context, wallet string) ([]string, error) {
	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read head block of %s: %w", c.network, err)
	}
	from := int64(0)
	if head > scanWindow {
		from = int64(head - scanWindow)
	}

	recipient := common.HexToHash(strings.ToLower(wallet))
	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(from),
		ToBlock:   big.NewInt(int64(head)),
		Topics:    [][]common.Hash{{transferTopic}, nil, {recipient}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter transfer logs on %s: %w", c.network, err)
	}

	seen := make(map[string]struct{})
	var contracts []string
	for _, l := range logs {
		addr := strings.ToLower(l.Address.Hex())
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		contracts = append(contracts, addr)
	}
	return contracts, nil
}

func (c *Client) call(ctx context.Context, contract string, input []byte) ([]byte, error) {
	to := common.HexToAddress(contract)
	output, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call to %s on %s failed: %w", contract, c.network, err)
	}
	return output, nil
}

func (c *Client) callString(ctx context.Context, contract, method string) (string, error) {
	input, err := c.abi.Pack(method)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s: %w", method, err)
	}
	output, err := c.call(ctx, contract, input)
	if err != nil {
		return "", err
	}
	var value string
	if err := c.abi.UnpackIntoInterface(&value, method, output); err != nil {
		return "", fmt.Errorf("failed to unpack %s from %s: %w", method, contract, err)
	}
	return value, nil
}
