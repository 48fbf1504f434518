package http

import (
	"context"
	"fmt"
	"log"
	"net"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialcircle/internal/cache"
	"socialcircle/internal/config"
	"socialcircle/internal/database"
	"socialcircle/internal/handler"
	"socialcircle/internal/queue"
	appredis "socialcircle/internal/redis"
	"socialcircle/internal/repository"
	"socialcircle/internal/service"
	"socialcircle/internal/worker"
)

// Run wires the whole application together and serves until interrupted.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	loginTokenRepo := repository.NewLoginTokenRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Redis-backed plumbing
	unreadCache := cache.NewUnreadCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// Services
	mediaService, err := service.NewMediaService(ctx, cfg, userRepo)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}
	mailer := service.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom)
	authService := service.NewAuthService(loginTokenRepo, cfg)
	userService := service.NewUserService(userRepo, followRepo, postRepo, authService, mailer, cfg)
	feedService := service.NewFeedService(postRepo)
	followService := service.NewFollowService(followRepo, userRepo)
	postService := service.NewPostService(db, postRepo, commentRepo, mediaService)
	messageService := service.NewMessageService(messageRepo, userRepo, unreadCache)
	maintenanceService := service.NewMaintenanceService(userRepo, publisher)

	// Background workers for image migration
	workerManager := worker.NewManager(consumer, worker.NewHandler(mediaService), worker.DefaultManagerConfig())
	if err := workerManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.Stop()

	router := NewRouter(RouterConfig{
		AuthHandler:        handler.NewAuthHandler(userService, authService, cfg),
		UserHandler:        handler.NewUserHandler(userService, followService, postService, mediaService),
		FeedHandler:        handler.NewFeedHandler(feedService),
		FollowHandler:      handler.NewFollowHandler(followService),
		PostHandler:        handler.NewPostHandler(postService, mediaService),
		MessageHandler:     handler.NewMessageHandler(messageService),
		MaintenanceHandler: handler.NewMaintenanceHandler(maintenanceService),
		JWTSecret:          cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
		// Request contexts descend from ctx so cancelling it ends the
		// long-lived message streams during shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("[Server] Received %v, shutting down", sig)
	}

	// Cancel the base context first so open message streams stop polling
	// and their handlers return; Shutdown then only has to wait for
	// ordinary requests.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}

	log.Printf("[Server] Stopped")
	return nil
}
