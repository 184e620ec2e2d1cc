package main

import (
	"log"

	_ "github.com/dhima/webhook-delivery-engine/docs" // Import generated docs
	"github.com/dhima/webhook-delivery-engine/internal/api"
)

// @title Webhook Delivery Engine API
// @version 1.0
// @description Management API for the webhook delivery engine: schedule one-off events, cancel pending ones, and inspect the delivery history of any event.
// @description
// @description ## Queues
// @description - **Event queue**: rows inserted by database triggers on row changes, delivered to the trigger's webhook with retries
// @description - **Scheduled queue**: cron-materialized and ad-hoc rows delivered at their scheduled time
// @description
// @description Delivery itself runs in the engine process; this API only manages and observes the queues.

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	srv := api.NewServer()
	if err := srv.Serve(); err != nil {
		log.Fatalf("api server stopped: %v", err)
	}
}
