package models

// OrderStatus is the state of an order in the fulfilment workflow
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPrinting  OrderStatus = "printing"
	OrderStatusColoring  OrderStatus = "coloring"
	OrderStatusPackaging OrderStatus = "packaging"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusUnpaid    OrderStatus = "unpaid"
	OrderStatusDelayed   OrderStatus = "delayed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists, for every non-terminal status, the statuses it may move to.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:   {OrderStatusAccepted, OrderStatusUnpaid, OrderStatusCancelled},
	OrderStatusUnpaid:    {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusPrinting, OrderStatusDelayed, OrderStatusCancelled},
	OrderStatusPrinting:  {OrderStatusColoring, OrderStatusDelayed, OrderStatusCancelled},
	OrderStatusColoring:  {OrderStatusPackaging, OrderStatusDelayed, OrderStatusCancelled},
	OrderStatusPackaging: {OrderStatusReady, OrderStatusDelayed, OrderStatusCancelled},
	OrderStatusDelayed:   {OrderStatusPrinting, OrderStatusColoring, OrderStatusPackaging, OrderStatusCancelled},
	OrderStatusReady:     nil,
	OrderStatusCancelled: nil,
}

// OrderStatuses returns every known order status in workflow order
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusCreated, OrderStatusAccepted, OrderStatusPrinting, OrderStatusColoring,
		OrderStatusPackaging, OrderStatusReady, OrderStatusUnpaid, OrderStatusDelayed,
		OrderStatusCancelled,
	}
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusReady || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
// Staying in the same status is always allowed so repeated updates are idempotent.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RequestStatus is the state of a custom measurement request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusWaiting   RequestStatus = "waiting"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusRejected  RequestStatus = "rejected"
)

// Valid reports whether s is a known request status
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusWaiting, RequestStatusFulfilled, RequestStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a request may move from s to next.
// Only pending requests move; every other status is final.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	return s == RequestStatusPending
}
