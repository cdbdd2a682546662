package message

import "fmt"

type MarketDataKind byte

const (
	Quote      MarketDataKind = 'Q'
	TradePrint MarketDataKind = 'T'
)

func (k MarketDataKind) String() string {
	switch k {
	case Quote:
		return "QUOTE"
	case TradePrint:
		return "TRADE"
	default:
		return fmt.Sprintf("KIND(%q)", byte(k))
	}
}

// MarketData is a top-of-book quote or a last-trade print.
type MarketData struct {
	Symbol         string
	BidPrice       float64
	AskPrice       float64
	BidSize        int32
	AskSize        int32
	LastPrice      float64
	LastSize       int32
	Timestamp      int64 // monotonic nanoseconds
	SequenceNumber int64
	Kind           MarketDataKind
}

// NewQuote builds a quote. ts comes from the caller's monotonic clock.
func NewQuote(symbol string, bid, ask float64, bidSize, askSize int32, seq, ts int64) MarketData {
	return MarketData{
		Symbol:         symbol,
		BidPrice:       bid,
		AskPrice:       ask,
		BidSize:        bidSize,
		AskSize:        askSize,
		Timestamp:      ts,
		SequenceNumber: seq,
		Kind:           Quote,
	}
}

// NewTrade builds a last-trade print.
func NewTrade(symbol string, price float64, size int32, seq, ts int64) MarketData {
	return MarketData{
		Symbol:         symbol,
		LastPrice:      price,
		LastSize:       size,
		Timestamp:      ts,
		SequenceNumber: seq,
		Kind:           TradePrint,
	}
}

func (m MarketData) MidPrice() float64 { return Mid(m.BidPrice, m.AskPrice) }

func (m MarketData) Spread() float64 { return m.AskPrice - m.BidPrice }

func (m MarketData) SpreadBps() float64 { return SpreadBps(m.BidPrice, m.AskPrice) }

// Mid and SpreadBps are shared with the direct accessors so a record read
// in place and a decoded value always agree.
func Mid(bid, ask float64) float64 { return (bid + ask) / 2 }

func SpreadBps(bid, ask float64) float64 {
	return (ask - bid) / Mid(bid, ask) * 10_000
}

func (m MarketData) String() string {
	if m.Kind == Quote {
		return fmt.Sprintf("[%c] %s: %.4f x %d | %.4f x %d (seq=%d)",
			m.Kind, m.Symbol, m.BidPrice, m.BidSize, m.AskPrice, m.AskSize, m.SequenceNumber)
	}
	return fmt.Sprintf("[%c] %s: %.4f x %d (seq=%d)",
		m.Kind, m.Symbol, m.LastPrice, m.LastSize, m.SequenceNumber)
}
