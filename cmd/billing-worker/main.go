package main

import (
	"os"
	"os/signal"
	"syscall"

	"blogforge/pkg/config"
	"blogforge/pkg/logger"
	"blogforge/pkg/queue"
)

// Tails the billing exchange and writes every settlement and grant to the
// log, giving operations an audit stream that is independent of the
// services' own databases.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	err = queueClient.ConsumeBillingEvents(func(event queue.BillingEvent) error {
		switch event.Type {
		case "settlement":
			log.Info("[BILLING] user=%s settled order=%s plan=%s credits=%d balance=%d",
				event.UserID, event.OrderID, event.PlanID, event.Amount, event.Balance)
		case "signup_grant":
			log.Info("[BILLING] user=%s granted signup credits=%d balance=%d",
				event.UserID, event.Amount, event.Balance)
		default:
			log.Warn("[BILLING] unknown event type %q: %+v", event.Type, event)
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to start billing consumer: %v", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Billing worker exiting")
}
