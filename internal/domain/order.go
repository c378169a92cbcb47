// Package domain defines the core trading objects shared across the engine:
// orders with their execution state machine, positions, and round-trip
// trades.
package domain

import (
	"math"

	"github.com/google/uuid"
)

// OrderSide is the direction of an order.
type OrderSide string

// Order sides.
const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution type of an order.
type OrderType string

// Order types.
const (
	OrderTypeMarket         OrderType = "market"
	OrderTypeClose          OrderType = "close"
	OrderTypeLimit          OrderType = "limit"
	OrderTypeStop           OrderType = "stop"
	OrderTypeStopLimit      OrderType = "stop_limit"
	OrderTypeStopTrail      OrderType = "stop_trail"
	OrderTypeStopTrailLimit OrderType = "stop_trail_limit"
	OrderTypeHistorical     OrderType = "historical"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses. Completed, Canceled, Expired, Margin, and Rejected are
// terminal.
const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPartial   OrderStatus = "partial"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusMargin    OrderStatus = "margin"
	OrderStatusRejected  OrderStatus = "rejected"
)

// ExecBit records a single (possibly partial) execution event.
type ExecBit struct {
	DT         float64 // datetime of the fill, days since epoch
	Size       float64
	Price      float64
	Closed     float64
	ClosedVal  float64
	ClosedComm float64
	Opened     float64
	OpenedVal  float64
	OpenedComm float64
	PnL        float64
	PosSize    float64 // position size after this fill
	PosPrice   float64 // position price after this fill
}

// ExecData accumulates execution state for an order: the individual fill
// events plus running aggregates.
type ExecData struct {
	DT      float64
	Size    float64 // total filled
	RemSize float64 // remaining to fill
	Price   float64 // volume-weighted average fill price
	Value   float64 // Size * Price
	Margin  float64
	PnL     float64

	Closed     float64
	ClosedVal  float64
	ClosedComm float64
	Opened     float64
	OpenedVal  float64
	OpenedComm float64
	Comm       float64

	PosSize  float64
	PosPrice float64

	Bits []ExecBit
}

// Add folds one execution event into the aggregates.
func (e *ExecData) Add(bit ExecBit) {
	e.Bits = append(e.Bits, bit)

	if !math.IsNaN(bit.Size) && bit.Size != 0 {
		if e.Size == 0 {
			e.Price = bit.Price
		} else {
			e.Price = (e.Size*e.Price + bit.Size*bit.Price) / (e.Size + bit.Size)
		}
		e.Size += bit.Size
	}
	e.RemSize = math.Abs(e.RemSize - bit.Size)
	e.DT = bit.DT

	e.Closed += bit.Closed
	e.ClosedVal += bit.ClosedVal
	e.ClosedComm += bit.ClosedComm
	e.Opened += bit.Opened
	e.OpenedVal += bit.OpenedVal
	e.OpenedComm += bit.OpenedComm
	e.Comm = e.ClosedComm + e.OpenedComm

	e.PnL += bit.PnL
	e.PosSize = bit.PosSize
	e.PosPrice = bit.PosPrice
	e.Value = e.Size * e.Price
}

// Order is a single instruction to trade. Size is always positive; Side
// carries direction.
type Order struct {
	ID     string // unique identifier
	Ref    int    // broker-assigned sequence number
	Data   string // data feed name, the broker's position key
	Side   OrderSide
	Type   OrderType
	Status OrderStatus

	Size         float64 // absolute order size
	Price        float64 // limit price (Limit) or trigger price (Stop*)
	LimitPrice   float64 // limit price once a StopLimit triggers
	TrailAmount  float64 // fixed trailing distance
	TrailPercent float64 // trailing distance as fraction of price
	LimitOffset  float64 // StopTrailLimit: limit trails stop by this offset

	ValidUntil float64 // expiry datetime, 0 = good-till-cancelled
	TradeID    int

	Active   bool // eligible for matching (bracket children start inactive)
	Transmit bool // submit immediately; false holds a bracket group

	Parent   *Order
	Children []*Order
	OCO      *Order

	Triggered bool // StopLimit: stop leg has fired, limit leg is live

	Executed ExecData
}

// NewOrder creates an order in Created state with a fresh ID.
func NewOrder(data string, side OrderSide, typ OrderType, size float64) *Order {
	return &Order{
		ID:       uuid.NewString(),
		Data:     data,
		Side:     side,
		Type:     typ,
		Size:     math.Abs(size),
		Status:   OrderStatusCreated,
		Active:   true,
		Transmit: true,
		Executed: ExecData{RemSize: math.Abs(size)},
	}
}

// IsBuy reports whether the order buys.
func (o *Order) IsBuy() bool { return o.Side == OrderSideBuy }

// IsSell reports whether the order sells.
func (o *Order) IsSell() bool { return o.Side == OrderSideSell }

// Alive reports whether the order can still execute.
func (o *Order) Alive() bool {
	switch o.Status {
	case OrderStatusCreated, OrderStatusSubmitted, OrderStatusAccepted, OrderStatusPartial:
		return true
	}
	return false
}

// Terminal reports whether the order has reached a final state.
func (o *Order) Terminal() bool { return !o.Alive() }

// SignedSize returns the order size with direction applied.
func (o *Order) SignedSize() float64 {
	if o.IsSell() {
		return -o.Size
	}
	return o.Size
}

// Remaining returns the unfilled size.
func (o *Order) Remaining() float64 { return o.Executed.RemSize }

// Submit moves the order to Submitted.
func (o *Order) Submit() { o.Status = OrderStatusSubmitted }

// Accept moves the order to Accepted.
func (o *Order) Accept() { o.Status = OrderStatusAccepted }

// Reject moves the order to Rejected. It reports whether the state changed.
func (o *Order) Reject() bool {
	if o.Status == OrderStatusRejected {
		return false
	}
	o.Status = OrderStatusRejected
	return true
}

// Cancel moves the order to Canceled.
func (o *Order) Cancel() { o.Status = OrderStatusCanceled }

// MarginCall moves the order to Margin.
func (o *Order) MarginCall() { o.Status = OrderStatusMargin }

// Expire marks the order Expired when dt has passed its validity window.
// Market orders never expire.
func (o *Order) Expire(dt float64) bool {
	if o.Type == OrderTypeMarket || o.ValidUntil <= 0 {
		return false
	}
	if dt > o.ValidUntil {
		o.Status = OrderStatusExpired
		o.Executed.DT = dt
		return true
	}
	return false
}

// Execute folds a fill into the order's execution data and advances the
// status to Partial or Completed depending on the remaining size.
func (o *Order) Execute(bit ExecBit) {
	if bit.Size == 0 {
		return
	}
	o.Executed.Add(bit)
	if o.Executed.RemSize > 1e-9 {
		o.Status = OrderStatusPartial
	} else {
		o.Executed.RemSize = 0
		o.Status = OrderStatusCompleted
	}
}

// TrailAdjust ratchets a trailing stop's trigger price toward the current
// price. Sell stops only move up; buy stops only move down.
func (o *Order) TrailAdjust(price float64) {
	if o.Type != OrderTypeStopTrail && o.Type != OrderTypeStopTrailLimit {
		return
	}
	amount := o.TrailAmount
	if amount == 0 && o.TrailPercent > 0 {
		amount = price * o.TrailPercent
	}
	if amount == 0 {
		return
	}

	if o.IsBuy() {
		trail := price + amount
		if o.Price == 0 || trail < o.Price {
			o.Price = trail
			if o.Type == OrderTypeStopTrailLimit {
				o.LimitPrice = trail - o.LimitOffset
			}
		}
	} else {
		trail := price - amount
		if o.Price == 0 || trail > o.Price {
			o.Price = trail
			if o.Type == OrderTypeStopTrailLimit {
				o.LimitPrice = trail + o.LimitOffset
			}
		}
	}
}
