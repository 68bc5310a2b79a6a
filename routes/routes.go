package routes

import (
	"github.com/anjiri1684/mentor_marketplace/handlers"
	"github.com/anjiri1684/mentor_marketplace/websocket"
)

// Handlers bundles everything the API exposes.
type Handlers struct {
	Bookings *handlers.BookingHandler
	Sessions *handlers.SessionHandler
	Slots    *handlers.SlotHandler
	Payouts  *handlers.PayoutHandler
	Webhooks *handlers.WebhookHandler
	Hub      *websocket.Hub
}
