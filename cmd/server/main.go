// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/maisonlabs/pulse-backend/internal/audience"
	"github.com/maisonlabs/pulse-backend/internal/controller"
	"github.com/maisonlabs/pulse-backend/internal/db"
	"github.com/maisonlabs/pulse-backend/internal/handler"
	"github.com/maisonlabs/pulse-backend/internal/launch"
	"github.com/maisonlabs/pulse-backend/internal/queue"
	"github.com/maisonlabs/pulse-backend/internal/repository"
	"github.com/maisonlabs/pulse-backend/internal/strategy"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	clientRepo := &repository.ClientRepository{DB: db.DB}
	tagRepo := &repository.TagRepository{DB: db.DB}
	historyRepo := &repository.HistoryRepository{DB: db.DB}
	activationRepo := &repository.ActivationRepository{DB: db.DB}

	cooldownDays := audience.DefaultCooldownDays
	if v, err := strconv.Atoi(os.Getenv("COOLDOWN_DAYS")); err == nil && v > 0 {
		cooldownDays = v
	}

	searcher := &audience.SQLSearcher{DB: db.DB}
	resolver := audience.NewResolver(searcher, cooldownDays)

	// Launch events: in-memory queue bridged to RabbitMQ when configured
	q := queue.NewInMemoryQueue()
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		publisher, err := queue.NewAMQPPublisher(amqpURL)
		if err != nil {
			log.Println("⚠️ RabbitMQ unavailable, launch events stay in-process:", err)
		} else {
			defer publisher.Close()
			queue.StartLaunchEventBridge(q, publisher.Publish)
		}
	}

	catalog := strategy.LoadOrDefault(os.Getenv("STRATEGY_CATALOG"))

	coordinator := launch.NewCoordinator(historyRepo, activationRepo, clientRepo, q)
	coordinator.Policy = catalog.DeadlinePolicy()

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
	}
	counts := strategy.NewCountService(catalog, resolver, rdb)

	workspaceController := &controller.WorkspaceController{
		Resolver:    resolver,
		Coordinator: coordinator,
		Counts:      counts,
	}

	clientHandler := &handler.ClientHandler{
		ClientRepo:     clientRepo,
		TagRepo:        tagRepo,
		HistoryRepo:    historyRepo,
		ActivationRepo: activationRepo,
	}

	r := chi.NewRouter()

	// Client browsing
	r.Get("/clients", clientHandler.ListClientsHandler)
	r.Get("/clients/{id}", clientHandler.GetClientHandler)
	r.Get("/activations", clientHandler.ListActivationsHandler)
	r.Post("/activations/{id}/done", clientHandler.MarkActivationDoneHandler)

	// Campaign workspace
	r.Post("/audience/search", workspaceController.SearchAudience)
	r.Get("/strategies", workspaceController.ListStrategies)
	r.Post("/campaigns/launch", workspaceController.LaunchCampaign)
	r.Post("/campaigns/retry-tasks", workspaceController.RetryTasks)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
