package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jykim632/secretary/internal/ai"
	"github.com/jykim632/secretary/internal/bot"
	"github.com/jykim632/secretary/internal/bot/handlers"
	"github.com/jykim632/secretary/internal/config"
	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/notify"
	"github.com/jykim632/secretary/internal/platform/slack"
	"github.com/jykim632/secretary/internal/repository"
	"github.com/jykim632/secretary/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, natural language features disabled")
	}

	repos := &handlers.Repositories{
		User:         repository.NewUserRepository(db),
		Invite:       repository.NewInviteRepository(db),
		Memo:         repository.NewMemoRepository(db),
		Todo:         repository.NewTodoRepository(db),
		Event:        repository.NewEventRepository(db),
		Reminder:     repository.NewReminderRepository(db),
		Conversation: repository.NewConversationRepository(db),
	}

	router := notify.NewRouter(repos.User)
	engine := scheduler.New(repos.Reminder, repos.Conversation, router, scheduler.Config{
		CheckInterval: time.Duration(cfg.CheckIntervalSeconds) * time.Second,
		CleanupHour:   cfg.CleanupHour,
		RetentionDays: cfg.ConversationRetentionDays,
	})

	h := handlers.New(repos, aiClient, engine, handlers.Options{
		DefaultFamilyName: cfg.DefaultFamilyName,
		DefaultTimezone:   cfg.DefaultTimezone,
		HistoryMessages:   cfg.ConversationHistoryMessages,
		HistoryTTL:        time.Duration(cfg.ConversationTTLHours) * time.Hour,
	})

	b, err := bot.New(cfg.TelegramToken, h)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	router.RegisterSender("telegram", b)

	if cfg.SlackBotToken != "" {
		router.RegisterSender("slack", slack.New(cfg.SlackBotToken))
		log.Println("Slack sender registered")
	}

	engine.Start()
	defer engine.Stop()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	log.Println("Starting bot...")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Bot error: %v", err)
	}
}
