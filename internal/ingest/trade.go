package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/maxfuntrading/maxfun-evt/internal/aggregate"
	"github.com/maxfuntrading/maxfun-evt/internal/chain"
	"github.com/maxfuntrading/maxfun-evt/internal/domain/model"
	"github.com/maxfuntrading/maxfun-evt/internal/events"
	"github.com/maxfuntrading/maxfun-evt/internal/metrics"
	"github.com/maxfuntrading/maxfun-evt/internal/store"
)

// TradeProcessor turns one Bought/Sold/InitialBuyAndUpdate log into a full
// state update: the raw log, the USD-priced trade row, the summary stats,
// the candle merge and the trader's authoritative balance.
//
// Everything runs in one transaction that starts by locking the token's
// summary row, so two trades on the same token, or a trade racing a
// reconciliation sweep, serialize instead of clobbering each other.
type TradeProcessor struct {
	db        store.TxBeginner
	chain     chain.Client
	eventLogs store.EventLogRepository
	tradeLogs store.TradeLogRepository
	summaries store.TokenSummaryRepository
	positions store.UserPositionRepository
	engine    *aggregate.Engine
	logger    *slog.Logger
}

func NewTradeProcessor(
	db store.TxBeginner,
	chainClient chain.Client,
	eventLogs store.EventLogRepository,
	tradeLogs store.TradeLogRepository,
	summaries store.TokenSummaryRepository,
	positions store.UserPositionRepository,
	engine *aggregate.Engine,
	logger *slog.Logger,
) *TradeProcessor {
	return &TradeProcessor{
		db:        db,
		chain:     chainClient,
		eventLogs: eventLogs,
		tradeLogs: tradeLogs,
		summaries: summaries,
		positions: positions,
		engine:    engine,
		logger:    logger.With("component", "trade"),
	}
}

// normalizeTradeAmounts scales the raw event amounts into decimal token and
// raised-asset units. The launched token always has 18 decimals; the raised
// side uses the asset's own precision. On a buy the user pays raised asset
// in and receives tokens out; a sell is the inverse.
func normalizeTradeAmounts(evt *events.Trade, raisedDecimal int32) (base, quote decimal.Decimal) {
	if evt.Type == model.TradeTypeBuy {
		return decimal.NewFromBigInt(evt.AmountOut, -18), decimal.NewFromBigInt(evt.AmountIn, -raisedDecimal)
	}
	return decimal.NewFromBigInt(evt.AmountIn, -18), decimal.NewFromBigInt(evt.AmountOut, -raisedDecimal)
}

func (p *TradeProcessor) Handle(ctx context.Context, evtLog *model.EventLog, evt *events.Trade) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trade tx: %w", err)
	}
	defer tx.Rollback()

	if err := p.eventLogs.InsertTx(ctx, tx, evtLog); err != nil {
		return err
	}

	meta, err := p.summaries.TradeMetaForUpdateTx(ctx, tx, evt.Token)
	if errors.Is(err, store.ErrNotFound) {
		// A trade for a token this service never saw launch. Keep the raw
		// log, skip the aggregates.
		metrics.EventsSkippedTotal.WithLabelValues("unknown_token").Inc()
		p.logger.Warn("trade for unknown token", "token", evt.Token, "txn_hash", evtLog.TxnHash)
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit unknown-token trade tx: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	baseAmount, quoteAmount := normalizeTradeAmounts(evt, meta.RaisedDecimal)
	priceToken := decimal.NewFromBigInt(evt.Price, -18)

	oraclePrice, err := p.chain.OraclePrice(ctx, meta.OracleAddress)
	if err != nil {
		return fmt.Errorf("oracle price for %s: %w", meta.RaisedAddress, err)
	}
	priceUSD := priceToken.Mul(oraclePrice)

	progress, sold, err := p.chain.CurveProgress(ctx, evt.Token)
	if err != nil {
		return fmt.Errorf("curve progress for %s: %w", evt.Token, err)
	}

	balance, err := p.chain.BalanceOf(ctx, evt.Token, evt.User, 18)
	if err != nil {
		return fmt.Errorf("balance of %s for %s: %w", evt.Token, evt.User, err)
	}

	// The summary reads candle history before this trade's candle is
	// merged, so the trade's own volume rides in as extraVolume.
	rate, volume24h, err := p.engine.Rate24h(ctx, tx, evt.Token, priceUSD, evtLog.BlockTime, baseAmount)
	if err != nil {
		return err
	}

	if err := p.summaries.ApplyTradeStatsTx(ctx, tx, store.ApplyTradeStats{
		TokenAddress:   evt.Token,
		Price:          priceUSD,
		PriceToken:     priceToken,
		PriceRate24h:   rate,
		Volume24h:      volume24h,
		LiquidityToken: sold,
		BondingCurve:   progress,
		LastTradeTs:    evtLog.BlockTime,
	}); err != nil {
		return err
	}

	candle := aggregate.TradeCandle(evt.Token, priceUSD, baseAmount, baseAmount.Mul(priceUSD), evtLog.BlockTime)
	if err := p.engine.UpsertTradeTx(ctx, tx, candle); err != nil {
		return err
	}

	if err := p.tradeLogs.InsertTx(ctx, tx, &model.TradeLog{
		BlockNumber:  evtLog.BlockNumber,
		TxnIndex:     evtLog.TxnIndex,
		LogIndex:     evtLog.LogIndex,
		BlockTime:    evtLog.BlockTime,
		TxnHash:      evtLog.TxnHash,
		TokenAddress: evt.Token,
		UserAddress:  evt.User,
		TradeType:    evt.Type,
		Token0:       evt.Token,
		Amount0:      baseAmount,
		Token1:       meta.RaisedAddress,
		Amount1:      quoteAmount,
		Price:        priceUSD,
		PriceToken:   priceToken,
	}); err != nil {
		return err
	}

	if err := p.positions.UpsertTx(ctx, tx, &model.UserPosition{
		UserAddress:  evt.User,
		TokenAddress: evt.Token,
		Amount:       balance,
		UpdateTs:     evtLog.BlockTime,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trade tx: %w", err)
	}

	metrics.TradesProcessedTotal.WithLabelValues(evt.Type.String()).Inc()
	p.logger.Info("trade processed",
		"token", evt.Token,
		"user", evt.User,
		"type", evt.Type.String(),
		"amount", baseAmount.String(),
		"price", priceUSD.String(),
		"block", evtLog.BlockNumber)
	return nil
}
