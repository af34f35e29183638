// Package server relays published alerts and price updates to WebSocket clients.
package server

import "time"

// Relay constants.
const (
	// Inbound WebSocket messages allowed per connection per RateLimitWindow.
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Upper bound on a POST /publish body.
	MaxPublishBytes = 1 << 20

	// Outbound queue per client on top of the replayed history.
	ClientSendBuffer = 64
	WriteTimeout     = 5 * time.Second

	// Room prefix for per-item price updates.
	ItemRoomPrefix = "item:"
)

// Event types sent to clients.
const (
	EventPriceUpdate       = "price_update"
	EventPriceUpdateGlobal = "price_update_global"
	EventFlipOpportunity   = "flip_opportunity"
	EventScreenAlert       = "screen_alert"
	EventError             = "error"
)
