package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/storepost/configs"
	"github.com/maheshrc27/storepost/internal/api"
	"github.com/maheshrc27/storepost/internal/api/handlers"
	"github.com/maheshrc27/storepost/internal/api/middleware"
	"github.com/maheshrc27/storepost/internal/composer"
	job "github.com/maheshrc27/storepost/internal/jobs"
	"github.com/maheshrc27/storepost/internal/lockstore"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/queue"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/internal/service"
	"github.com/maheshrc27/storepost/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for the given user id and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *issueToken != "" {
		token, err := utils.GenerateToken(cfg.SecretKey, *issueToken, 30*24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn, redisOpts, err := redisOptions(cfg.RedisURI)
	if err != nil {
		log.Fatalf("Invalid redis address: %v", err)
	}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	postTargetRepo := repository.NewPostTargetRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	generationDefaultRepo := repository.NewGenerationDefaultRepository(db)

	r2Service, err := service.NewR2Service(context.Background(), *cfg)
	if err != nil {
		log.Fatalf("Failed to configure object storage: %v", err)
	}
	mediaService := service.NewMediaService(r2Service, mediaAssetRepo)
	connectionService := service.NewConnectionService(userRepo, socialAccountRepo)
	generationService := service.NewGenerationService(cfg.Generation)

	instagramPublisher := service.NewInstagramPublisher(cfg.Platforms.InstagramAPIURL, cfg.SecretKey, socialAccountRepo)
	deliveryService := service.NewDeliveryService(postRepo, postTargetRepo,
		service.NewListingPublisher(cfg.Platforms.ListingAPIURL, cfg.SecretKey, userRepo,
			service.GoogleTokenSource(cfg.GoogleClientID, cfg.GoogleClientSecret, service.ListingScope)),
		instagramPublisher,
		service.NewMicroblogPublisher(cfg.Platforms.MicroblogAPIURL, cfg.SecretKey, socialAccountRepo),
		service.NewYoutubePublisher(cfg.SecretKey, socialAccountRepo,
			service.GoogleTokenSource(cfg.GoogleClientID, cfg.GoogleClientSecret, service.YoutubeUploadScope)),
	)

	queueClient := queue.NewClient(client)
	postService := service.NewPostService(db, postRepo, postTargetRepo, connectionService, deliveryService, queueClient)

	locks, closeLocks, err := newLockStore(*cfg, generationDefaultRepo, redisOpts)
	if err != nil {
		log.Fatalf("Failed to open lock store: %v", err)
	}
	defer closeLocks.Close()

	sessions := composer.NewRegistry(composer.Deps{
		Media:       mediaService,
		Publisher:   postService,
		Connections: connectionService,
		Generator:   generationService,
		Locks:       locks,
	}, cfg.Scheduler.SessionTTL)

	authMiddleware := middleware.NewAuthMiddleware(cfg.SecretKey)

	api.SetupRoutes(app, authMiddleware.AuthMiddleware(), api.Handlers{
		Composer: handlers.NewComposerHandler(sessions),
		Posts:    handlers.NewPostHandler(postService),
		Media:    handlers.NewMediaHandler(mediaService),
		Accounts: handlers.NewAccountHandler(connectionService),
	})

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, map[models.Platform]job.TokenRefresher{
		models.PlatformPhotoNetwork: instagramPublisher,
	})
	sweepJob := job.NewScheduleSweepJob(postRepo, queueClient, cfg.Scheduler.OverdueAfter)
	sessionJob := job.NewSessionExpiryJob(sessions)

	c := cron.New()
	c.AddFunc("@every 6h", func() { refreshTokenJob.RefreshTokens() })
	c.AddFunc(fmt.Sprintf("@every %s", cfg.Scheduler.SweepEvery), func() { sweepJob.Sweep() })
	c.AddFunc("@every 5m", sessionJob.ExpireSessions)
	c.Start()
	defer c.Stop()

	//queue
	queueW := queue.NewQueue(postRepo, deliveryService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})

	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSchedulePost, queueW.HandleSchedulePostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server)
}

// redisOptions accepts either host:port or a redis:// URL.
func redisOptions(uri string) (asynq.RedisConnOpt, *redis.Options, error) {
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		conn, err := asynq.ParseRedisURI(uri)
		if err != nil {
			return nil, nil, err
		}
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, nil, err
		}
		return conn, opts, nil
	}
	return asynq.RedisClientOpt{Addr: uri}, &redis.Options{Addr: uri}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLockStore(cfg config.Config, repo repository.GenerationDefaultRepository, redisOpts *redis.Options) (composer.LockStore, io.Closer, error) {
	switch cfg.LockStore.Driver {
	case "", "postgres":
		return lockstore.NewPostgres(repo), nopCloser{}, nil
	case "redis":
		rdb := redis.NewClient(redisOpts)
		return lockstore.NewRedis(rdb, ""), rdb, nil
	case "sqlite":
		store, err := lockstore.OpenSQLite(cfg.LockStore.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "memory":
		return lockstore.NewMemory(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown lock store driver %q", cfg.LockStore.Driver)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	server.Shutdown()

	log.Println("Server shutdown complete.")
}
