package models

import "time"

// Event types
const (
	EventTypeCartCheckedOut = "CART_CHECKED_OUT"
	EventTypeUserLoggedIn   = "USER_LOGGED_IN"
	EventTypeUserLoggedOut  = "USER_LOGGED_OUT"
	EventTypeUserRegistered = "USER_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartCheckedOutEvent published when a non-empty cart is checked out
type CartCheckedOutEvent struct {
	BaseEvent
	Username string     `json:"username,omitempty"`
	Lines    []CartLine `json:"lines"`
	Total    int64      `json:"total"`
}

// UserEvent published on login, logout and registration
type UserEvent struct {
	BaseEvent
	Username string `json:"username"`
}
