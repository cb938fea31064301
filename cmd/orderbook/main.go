package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	. "orderbook/internal/common"
	"orderbook/internal/engine"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logReporter writes every trade to the log.
type logReporter struct {
	logger zerolog.Logger
}

func (r logReporter) ReportTrade(trade Trade) error {
	r.logger.Info().
		Uint64("bid_id", trade.Bid.OrderID).
		Int32("bid_price", trade.Bid.Price).
		Uint64("ask_id", trade.Ask.OrderID).
		Int32("ask_price", trade.Ask.Price).
		Uint32("quantity", trade.Bid.Quantity).
		Msg("trade")
	return nil
}

func main() {
	level := flag.String("log-level", "info", "Log level: ['trace', 'debug', 'info', 'warn', 'error']")
	pretty := flag.Bool("pretty", true, "Human readable console logs instead of JSON")
	queue := flag.Int("queue", 0, "Pending command buffer size (0 for the default)")
	flag.Parse()

	logLevel, err := zerolog.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	zerolog.SetGlobalLevel(logLevel)
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	config := engine.DefaultConfig()
	config.Logger = log.Logger
	config.QueueSize = *queue

	eng := engine.New(config)
	eng.SetReporter(logReporter{logger: log.Logger})
	eng.Start(ctx)
	defer func() {
		if err := eng.Stop(); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("engine exited with error")
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Error().Err(err).Msg("unable to read input")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, err := parseCommand(line)
			if err != nil {
				log.Warn().Err(err).Str("line", line).Msg("bad command")
				continue
			}
			if err := run(ctx, eng, cmd, os.Stdout); err != nil {
				log.Error().Err(err).Str("action", cmd.action).Msg("command failed")
			}
		}
	}
}
