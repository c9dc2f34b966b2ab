package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/chain/rpc"
)

// Client is the chain surface the scanner, event pipeline and
// reconciliation sweeps depend on. Implementations are expected to be
// safe for concurrent use.
type Client interface {
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetBlockTime(ctx context.Context, blockNumber uint64) (int64, error)
	GetLogs(ctx context.Context, filter rpc.LogFilter) ([]*rpc.Log, error)
	BalanceOf(ctx context.Context, token, holder string, decimals int32) (decimal.Decimal, error)
	TotalSupply(ctx context.Context, token string, decimals int32) (decimal.Decimal, error)
	OraclePrice(ctx context.Context, oracle string) (decimal.Decimal, error)
	CurveProgress(ctx context.Context, token string) (progress, sold decimal.Decimal, err error)
}

// maxUint256Plus1 recovers the signed value of a two's-complement int256
// word for error reporting.
var maxUint256Plus1 = new(big.Int).Lsh(big.NewInt(1), 256)

// Service implements Client over a JSON-RPC endpoint. Curve reads are
// issued against the factory contract the service was constructed with.
type Service struct {
	rpc     *rpc.Client
	factory string
	logger  *slog.Logger
}

func NewService(rpcClient *rpc.Client, factoryAddr string, logger *slog.Logger) *Service {
	return &Service{
		rpc:     rpcClient,
		factory: factoryAddr,
		logger:  logger.With("component", "chain"),
	}
}

func (s *Service) GetBlockNumber(ctx context.Context) (uint64, error) {
	return s.rpc.GetBlockNumber(ctx)
}

func (s *Service) GetBlockTime(ctx context.Context, blockNumber uint64) (int64, error) {
	block, err := s.rpc.GetBlockByNumber(ctx, blockNumber)
	if err != nil {
		return 0, err
	}
	if block == nil {
		return 0, fmt.Errorf("block %d not found", blockNumber)
	}
	ts, err := rpc.ParseHexUint64(block.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("block %d timestamp: %w", blockNumber, err)
	}
	return int64(ts), nil
}

func (s *Service) GetLogs(ctx context.Context, filter rpc.LogFilter) ([]*rpc.Log, error) {
	return s.rpc.GetLogs(ctx, filter)
}

// BalanceOf reads the holder's ERC-20 balance and scales it by the
// token's decimals.
func (s *Service) BalanceOf(ctx context.Context, token, holder string, decimals int32) (decimal.Decimal, error) {
	raw, err := s.callUint256(ctx, token, sigBalanceOf, holder)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceOf %s for %s: %w", token, holder, err)
	}
	return decimal.NewFromBigInt(raw, -decimals), nil
}

func (s *Service) TotalSupply(ctx context.Context, token string, decimals int32) (decimal.Decimal, error) {
	raw, err := s.callUint256(ctx, token, sigTotalSupply)
	if err != nil {
		return decimal.Zero, fmt.Errorf("totalSupply %s: %w", token, err)
	}
	return decimal.NewFromBigInt(raw, -decimals), nil
}

// OraclePrice reads a Chainlink-style feed: latestAnswer scaled by the
// feed's own decimals.
func (s *Service) OraclePrice(ctx context.Context, oracle string) (decimal.Decimal, error) {
	answer, err := s.callUint256(ctx, oracle, sigLatestAnswer)
	if err != nil {
		return decimal.Zero, fmt.Errorf("latestAnswer %s: %w", oracle, err)
	}
	// latestAnswer is int256. A negative answer would otherwise read as an
	// astronomically large unsigned value and poison every price downstream.
	if answer.BitLen() > 255 {
		return decimal.Zero, fmt.Errorf("latestAnswer %s: negative answer %s", oracle, new(big.Int).Sub(answer, maxUint256Plus1))
	}
	feedDecimals, err := s.callUint256(ctx, oracle, sigDecimals)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimals %s: %w", oracle, err)
	}
	return decimal.NewFromBigInt(answer, -int32(feedDecimals.Int64())), nil
}

// CurveProgress reads how far the token's bonding curve has advanced:
// sold amount over total sales target, both 18-decimal curve units.
// Tokens whose target reads as zero report zero progress.
func (s *Service) CurveProgress(ctx context.Context, token string) (decimal.Decimal, decimal.Decimal, error) {
	soldRaw, err := s.callUint256(ctx, s.factory, sigTokenSoldAmount, token)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("curve sold amount %s: %w", token, err)
	}
	targetRaw, err := s.callUint256(ctx, s.factory, sigTokenTotalSalesAmount, token)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("curve sales target %s: %w", token, err)
	}

	sold := decimal.NewFromBigInt(soldRaw, -18)
	target := decimal.NewFromBigInt(targetRaw, -18)
	if target.IsZero() {
		return decimal.Zero, sold, nil
	}
	return sold.Div(target), sold, nil
}

func (s *Service) callUint256(ctx context.Context, to, signature string, addrArgs ...string) (*big.Int, error) {
	data, err := encodeCall(signature, addrArgs...)
	if err != nil {
		return nil, err
	}
	result, err := s.rpc.Call(ctx, rpc.CallMsg{To: to, Data: data})
	if err != nil {
		return nil, err
	}
	return decodeUint256(result)
}
