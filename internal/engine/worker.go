package engine

import "context"

const defaultQueueSize = 100

// task runs on the matching goroutine with exclusive access to the book.
type task func(book *OrderBook)

// worker actions queued tasks one at a time until the engine is dying.
func (engine *Engine) worker() error {
	for {
		select {
		case <-engine.tomb.Dying():
			return nil
		case t := <-engine.tasks:
			t(engine.book)
		}
	}
}

// call queues fn and waits for its result. Once fn is queued the call waits
// for it to run even if ctx is cancelled, so the caller never loses track of
// a mutation that did happen.
func call[T any](ctx context.Context, engine *Engine, fn func(book *OrderBook) T) (T, error) {
	var zero T
	if engine.tomb == nil {
		return zero, ErrEngineStopped
	}

	reply := make(chan T, 1)
	select {
	case engine.tasks <- func(book *OrderBook) { reply <- fn(book) }:
	case <-engine.tomb.Dying():
		return zero, ErrEngineStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case result := <-reply:
		return result, nil
	case <-engine.tomb.Dead():
		// The worker may have finished the task just before exiting.
		select {
		case result := <-reply:
			return result, nil
		default:
			return zero, ErrEngineStopped
		}
	}
}
