package engine

import (
	"context"
	"errors"

	. "orderbook/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// ErrEngineStopped is returned for calls made before Start or after the
// engine has shut down.
var ErrEngineStopped = errors.New("engine is not running")

// Reporter is told about every trade the book produces.
type Reporter interface {
	ReportTrade(trade Trade) error
}

type Config struct {
	Logger    zerolog.Logger
	QueueSize int // Pending command buffer, defaultQueueSize if zero
}

func DefaultConfig() Config {
	return Config{
		Logger:    log.Logger,
		QueueSize: defaultQueueSize,
	}
}

// Engine owns one OrderBook and serializes every call onto a single
// goroutine, so it may be shared between callers. Run one engine per
// instrument.
type Engine struct {
	id       uuid.UUID
	book     *OrderBook
	reporter Reporter
	logger   zerolog.Logger

	tasks chan task
	tomb  *tomb.Tomb
}

func New(config Config) *Engine {
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}
	id := uuid.New()
	logger := config.Logger.With().Str("engine", id.String()).Logger()
	return &Engine{
		id:     id,
		book:   NewOrderBookWithLogger(logger),
		logger: logger,
		tasks:  make(chan task, config.QueueSize),
	}
}

func (engine *Engine) ID() uuid.UUID { return engine.id }

// SetReporter must be called before Start.
func (engine *Engine) SetReporter(reporter Reporter) {
	engine.reporter = reporter
}

// Start launches the matching goroutine. It stops when ctx is done or Stop
// is called. Start must be called once, before any other call.
func (engine *Engine) Start(ctx context.Context) {
	engine.tomb, _ = tomb.WithContext(ctx)
	engine.tomb.Go(engine.worker)
	engine.logger.Info().Msg("engine running")
}

// Stop shuts the matching goroutine down and waits for it to exit.
func (engine *Engine) Stop() error {
	if engine.tomb == nil {
		return nil
	}
	engine.tomb.Kill(nil)
	err := engine.tomb.Wait()
	engine.logger.Info().Msg("engine stopped")
	return err
}

type submitResult struct {
	trades []Trade
	err    error
}

func (engine *Engine) Submit(ctx context.Context, order Order) ([]Trade, error) {
	res, err := call(ctx, engine, func(book *OrderBook) submitResult {
		trades, err := book.Submit(order)
		engine.report(trades)
		return submitResult{trades, err}
	})
	if err != nil {
		return nil, err
	}
	return res.trades, res.err
}

func (engine *Engine) Cancel(ctx context.Context, id OrderID) error {
	_, err := call(ctx, engine, func(book *OrderBook) struct{} {
		book.Cancel(id)
		return struct{}{}
	})
	return err
}

func (engine *Engine) Modify(ctx context.Context, modify OrderModify) ([]Trade, error) {
	res, err := call(ctx, engine, func(book *OrderBook) submitResult {
		trades, err := book.Modify(modify)
		engine.report(trades)
		return submitResult{trades, err}
	})
	if err != nil {
		return nil, err
	}
	return res.trades, res.err
}

func (engine *Engine) Size(ctx context.Context) (int, error) {
	return call(ctx, engine, (*OrderBook).Size)
}

func (engine *Engine) Levels(ctx context.Context) (LevelInfos, error) {
	return call(ctx, engine, (*OrderBook).Levels)
}

// report hands trades to the reporter. Reporting failures are logged and
// never undo the match.
func (engine *Engine) report(trades []Trade) {
	if engine.reporter == nil {
		return
	}
	for _, trade := range trades {
		if err := engine.reporter.ReportTrade(trade); err != nil {
			engine.logger.Error().
				Err(err).
				Uint64("bid_id", trade.Bid.OrderID).
				Uint64("ask_id", trade.Ask.OrderID).
				Msg("unable to report trade")
		}
	}
}
