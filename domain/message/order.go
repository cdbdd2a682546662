package message

import "fmt"

type Side byte
type OrderType byte
type TimeInForce byte
type Status byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

const (
	MarketOrder OrderType = 'M'
	LimitOrder  OrderType = 'L'
)

const (
	Day TimeInForce = 'D'
	IOC TimeInForce = 'I' // immediate-or-cancel
	FOK TimeInForce = 'F' // fill-or-kill
)

const (
	StatusNew       Status = 'N'
	StatusFilled    Status = 'F'
	StatusCancelled Status = 'C'
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("SIDE(%q)", byte(s))
	}
}

func (t OrderType) String() string {
	switch t {
	case MarketOrder:
		return "MARKET"
	case LimitOrder:
		return "LIMIT"
	default:
		return fmt.Sprintf("TYPE(%q)", byte(t))
	}
}

func (t TimeInForce) String() string {
	switch t {
	case Day:
		return "DAY"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return fmt.Sprintf("TIF(%q)", byte(t))
	}
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("STATUS(%q)", byte(s))
	}
}

// Valid reports whether s is one of the three lifecycle tags.
func (s Status) Valid() bool {
	return s == StatusNew || s == StatusFilled || s == StatusCancelled
}

// Terminal reports whether no further fill or cancel is accepted.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Order is a single order and its fill progress.
type Order struct {
	OrderID        int64
	Symbol         string
	Side           Side
	Price          float64
	Quantity       int32
	FilledQuantity int32
	Type           OrderType
	TimeInForce    TimeInForce
	Timestamp      int64
	ClientOrderID  int64
	Status         Status
}

func NewBuyOrder(id int64, symbol string, price float64, qty int32, typ OrderType, clientID, ts int64) Order {
	return newOrder(id, symbol, Buy, price, qty, typ, clientID, ts)
}

func NewSellOrder(id int64, symbol string, price float64, qty int32, typ OrderType, clientID, ts int64) Order {
	return newOrder(id, symbol, Sell, price, qty, typ, clientID, ts)
}

func newOrder(id int64, symbol string, side Side, price float64, qty int32, typ OrderType, clientID, ts int64) Order {
	return Order{
		OrderID:       id,
		Symbol:        symbol,
		Side:          side,
		Price:         price,
		Quantity:      qty,
		Type:          typ,
		TimeInForce:   Day,
		Timestamp:     ts,
		ClientOrderID: clientID,
		Status:        StatusNew,
	}
}

func (o Order) Remaining() int32 { return o.Quantity - o.FilledQuantity }

func (o Order) IsFilled() bool { return o.FilledQuantity >= o.Quantity }

func (o Order) IsBuy() bool { return o.Side == Buy }

func (o Order) IsSell() bool { return o.Side == Sell }

func (o Order) String() string {
	return fmt.Sprintf("[%c] %s %s: %.4f x %d/%d (id=%d, client=%d, status=%c)",
		o.Side, o.Symbol, o.Type, o.Price, o.FilledQuantity, o.Quantity, o.OrderID, o.ClientOrderID, o.Status)
}
