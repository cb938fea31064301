package common

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

type OrderType int

const (
	// Good till cancel orders rest on the book across unsuccessful match
	// attempts until they are filled or explicitly cancelled.
	GoodTillCancel OrderType = iota
	// Fill and kill orders must execute, at least partially, against the
	// opposite side when they are submitted. Whatever is left over is
	// removed before the submission returns; it never rests.
	FillAndKill
)

func (t OrderType) String() string {
	switch t {
	case GoodTillCancel:
		return "gtc"
	case FillAndKill:
		return "fak"
	}
	return "unknown"
}

func (t OrderType) Valid() bool {
	return t == GoodTillCancel || t == FillAndKill
}

// Prices are integer ticks. They can be negative in some quoting conventions.
type Price = int32

type Quantity = uint32

type OrderID = uint64
