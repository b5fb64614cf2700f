// cmd/worker/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/streadway/amqp"

	"github.com/maisonlabs/pulse-backend/internal/launch"
	"github.com/maisonlabs/pulse-backend/internal/queue"
	"github.com/maisonlabs/pulse-backend/internal/repository"
	"github.com/maisonlabs/pulse-backend/internal/strategy"
)

const maxEventRetries = 3

// The worker drains launch events from RabbitMQ. Launches that ended in
// TaskCreationFailed get their seller tasks re-created here, and overdue
// activations are reported on a timer.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	clientRepo := &repository.ClientRepository{DB: db}
	historyRepo := &repository.HistoryRepository{DB: db}
	activationRepo := &repository.ActivationRepository{DB: db}

	catalog := strategy.LoadOrDefault(os.Getenv("STRATEGY_CATALOG"))
	coordinator := launch.NewCoordinator(historyRepo, activationRepo, clientRepo, nil)
	coordinator.Policy = catalog.DeadlinePolicy()

	conn, err := amqp.Dial(os.Getenv("AMQP_URL"))
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.LaunchQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var event launch.Event
			if err := json.Unmarshal(d.Body, &event); err != nil {
				log.Println("Invalid launch event:", err)
				d.Ack(false)
				continue
			}

			if err := processEvent(event, coordinator); err != nil {
				log.Println("Failed to process launch event:", err)
				retryCount := retryCountFrom(d.Headers)
				if retryCount < maxEventRetries {
					// Nack would requeue the original delivery with its old
					// header, so the retry is republished with the count
					// bumped and the original acked.
					requeueEvent(ch, q.Name, d.Body, retryCount+1)
				} else {
					log.Printf("⚠️ Dropping launch event %s after %d attempts\n", event.RequestID, maxEventRetries)
				}
			}

			d.Ack(false)
		}
	}()

	go reportOverdue(activationRepo)

	log.Println("Worker running, waiting for launch events...")
	<-forever
}

// retryCountFrom reads the x-retry-count header; amqp deserializes numeric
// headers as int32 or int64 depending on the publisher.
func retryCountFrom(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

func requeueEvent(ch *amqp.Channel, queueName string, body []byte, retryCount int) {
	err := ch.Publish("", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-retry-count": int32(retryCount)},
		Body:         body,
	})
	if err != nil {
		log.Println("⚠️ Failed to requeue launch event:", err)
	}
}

func processEvent(event launch.Event, coordinator *launch.Coordinator) error {
	log.Printf("📩 Launch event %s: %s (%d clients)\n", event.RequestID, event.State, len(event.ClientIDs))

	if event.State != launch.StateTaskCreationFailed || len(event.PendingTasks) == 0 {
		return nil
	}

	created, err := coordinator.RetryTasks(context.Background(), launch.Request{
		RequestID:    event.RequestID,
		CampaignName: event.CampaignName,
		CampaignTag:  event.CampaignTag,
		Query:        event.Query,
		ClientIDs:    event.PendingTasks,
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Recreated %d activations for launch %s\n", created, event.RequestID)
	return nil
}

func reportOverdue(repo repository.ActivationRepositoryInterface) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		overdue, err := repo.ListOverdue(time.Now())
		if err != nil {
			log.Println("⚠️ failed to list overdue activations:", err)
			continue
		}
		for _, a := range overdue {
			log.Printf("⏰ Activation %d overdue: %s for client %s (deadline %s)\n",
				a.ID, a.ActionType, a.ClientID, a.Deadline.Format("2006-01-02"))
		}
	}
}
