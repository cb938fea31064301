package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	. "orderbook/internal/common"
	"orderbook/internal/engine"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUsage         = errors.New("wrong number of arguments")
)

// command is one parsed console line. Unused fields are left zero.
type command struct {
	action    string
	id        OrderID
	orderType OrderType
	side      Side
	price     Price
	quantity  Quantity
}

// parseCommand reads one of:
//
//	submit <id> <gtc|fak> <buy|sell> <price> <qty>
//	modify <id> <buy|sell> <price> <qty>
//	cancel <id>
//	size
//	levels
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("%w: empty line", ErrUsage)
	}

	cmd := command{action: fields[0]}
	args := fields[1:]
	var err error
	switch cmd.action {
	case "submit":
		if len(args) != 5 {
			return command{}, fmt.Errorf("%w: submit <id> <gtc|fak> <buy|sell> <price> <qty>", ErrUsage)
		}
		if cmd.orderType, err = parseOrderType(args[1]); err != nil {
			return command{}, err
		}
		args = append(args[:1], args[2:]...)
		fallthrough
	case "modify":
		if len(args) != 4 {
			return command{}, fmt.Errorf("%w: modify <id> <buy|sell> <price> <qty>", ErrUsage)
		}
		if cmd.side, err = parseSide(args[1]); err != nil {
			return command{}, err
		}
		price, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return command{}, fmt.Errorf("invalid price %q: %w", args[2], err)
		}
		quantity, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return command{}, fmt.Errorf("invalid quantity %q: %w", args[3], err)
		}
		cmd.price, cmd.quantity = Price(price), Quantity(quantity)
		args = args[:1]
		fallthrough
	case "cancel":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%w: cancel <id>", ErrUsage)
		}
		if cmd.id, err = strconv.ParseUint(args[0], 10, 64); err != nil {
			return command{}, fmt.Errorf("invalid order id %q: %w", args[0], err)
		}
	case "size", "levels":
		if len(args) != 0 {
			return command{}, fmt.Errorf("%w: %s takes no arguments", ErrUsage, cmd.action)
		}
	default:
		return command{}, fmt.Errorf("%w: %s", ErrUnknownAction, cmd.action)
	}
	return cmd, nil
}

func parseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("%w %q", engine.ErrInvalidSide, s)
}

func parseOrderType(s string) (OrderType, error) {
	switch s {
	case "gtc":
		return GoodTillCancel, nil
	case "fak":
		return FillAndKill, nil
	}
	return 0, fmt.Errorf("%w %q", engine.ErrInvalidOrderType, s)
}

// run executes cmd against the engine and writes the outcome to out.
func run(ctx context.Context, eng *engine.Engine, cmd command, out io.Writer) error {
	var trades []Trade
	var err error
	switch cmd.action {
	case "submit":
		trades, err = eng.Submit(ctx, NewOrder(cmd.orderType, cmd.id, cmd.side, cmd.price, cmd.quantity))
	case "modify":
		trades, err = eng.Modify(ctx, OrderModify{ID: cmd.id, Side: cmd.side, Price: cmd.price, Quantity: cmd.quantity})
	case "cancel":
		err = eng.Cancel(ctx, cmd.id)
	case "size":
		size, err := eng.Size(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, size)
		return err
	case "levels":
		levels, err := eng.Levels(ctx)
		if err != nil {
			return err
		}
		return writeLevels(out, levels)
	}
	if err != nil {
		return err
	}

	for _, trade := range trades {
		if _, err := fmt.Fprintln(out, trade); err != nil {
			return err
		}
	}
	return nil
}

func writeLevels(out io.Writer, levels LevelInfos) error {
	var sb strings.Builder
	// Asks are printed best last so the spread sits in the middle.
	for i := len(levels.Asks) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "ask %d %d\n", levels.Asks[i].Price, levels.Asks[i].Quantity)
	}
	for _, level := range levels.Bids {
		fmt.Fprintf(&sb, "bid %d %d\n", level.Price, level.Quantity)
	}
	_, err := io.WriteString(out, sb.String())
	return err
}
