package models

import (
	"fmt"
	"strconv"
	"strings"
)

// NotFoundError signals that a referenced entity does not exist
// for the caller's business.
type NotFoundError struct {
	Entity string
	Id     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.Id)
}

// ValidationError signals malformed or structurally invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidTransitionError signals an order status change outside the
// allowed transition map.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition from %s to %s", e.From, e.To)
}

// CycleDetectedError signals that adding a component edge would close
// a cycle in the component graph. Path lists the item ids along the
// detected cycle, starting and ending at ParentId.
type CycleDetectedError struct {
	ParentId int
	ChildId  int
	Path     []int
}

func (e *CycleDetectedError) Error() string {
	parts := make([]string, 0, len(e.Path))
	for _, id := range e.Path {
		parts = append(parts, strconv.Itoa(id))
	}
	return fmt.Sprintf("component cycle detected adding item %d under item %d: %s",
		e.ChildId, e.ParentId, strings.Join(parts, " -> "))
}

// LineShortfall describes one order line that cannot be satisfied in
// the requested window.
type LineShortfall struct {
	ItemId    int               `json:"itemId"`
	ItemName  string            `json:"itemName"`
	Requested int               `json:"requested"`
	Available int               `json:"available"`
	Shortfall int               `json:"shortfall"`
	Conflicts []ConflictingHold `json:"conflicts,omitempty"`
}

// ConflictingHold identifies another order holding stock inside the
// contested window.
type ConflictingHold struct {
	OrderId      int         `json:"orderId"`
	OrderNumber  string      `json:"orderNumber"`
	Status       OrderStatus `json:"status"`
	CustomerName string      `json:"customerName"`
	WindowStart  string      `json:"windowStart"`
	WindowEnd    string      `json:"windowEnd"`
	Quantity     int         `json:"quantity"`
}

// AvailabilityConflictError signals that a reservation or checkout
// would exceed available stock for one or more lines.
type AvailabilityConflictError struct {
	Lines []LineShortfall
}

func (e *AvailabilityConflictError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("item %d short by %d (requested %d, available %d)",
			l.ItemId, l.Shortfall, l.Requested, l.Available))
	}
	return "insufficient availability: " + strings.Join(parts, "; ")
}

// StateConflictError signals an operation rejected because of the
// current state of the data (e.g. editing a non-draft order, deleting
// an item still referenced by order lines).
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string {
	return e.Message
}

// InvalidMovementError signals a ledger entry that violates the
// reason rules (wrong sign, missing order, missing notes).
type InvalidMovementError struct {
	Message string
}

func (e *InvalidMovementError) Error() string {
	return e.Message
}
