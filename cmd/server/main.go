package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"campus-portal/internal/announcement"
	"campus-portal/internal/changefeed"
	"campus-portal/internal/chat"
	"campus-portal/internal/config"
	"campus-portal/internal/dashboard"
	"campus-portal/internal/db"
	"campus-portal/internal/department"
	"campus-portal/internal/inquiry"
	myMiddleware "campus-portal/internal/middleware"
	"campus-portal/internal/notification"
	"campus-portal/internal/user"
	"campus-portal/internal/validate"
)

func main() {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	validate.SetInstitutionalDomain(cfg.StudentEmailDomain)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	database, err := db.NewDatabase(cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()
	log.Println("Connected to PostgreSQL")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database schema initialized")

	// 3. Connect to Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// 4. Change feed: writes publish to Redis, every live view reads
	// through one local hub.
	feed := changefeed.NewRedisFeed(redisClient)
	hub := changefeed.NewHub(feed, changefeed.All...)
	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Printf("Change feed stopped: %v", err)
			stop()
		}
	}()

	// 5. Features
	notificationService := notification.NewService(notification.NewRepository(database.Conn), feed)

	departmentService := department.NewService(department.NewRepository(database.Conn), feed)

	announcementService := announcement.NewService(announcement.NewRepository(database.Conn), feed, notificationService)

	userService, err := user.NewService(user.NewRepository(database.Conn), cfg.JWTSecret, cfg.JWTTTL,
		user.AdminAccount{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash}, feed, notificationService)
	if err != nil {
		log.Fatalf("Failed to set up accounts: %v", err)
	}

	inquiryRepo := inquiry.NewRepository(database.Conn)
	inquiryService := inquiry.NewService(inquiryRepo, inquiry.KeywordClassifier{}, feed, notificationService)

	presence := chat.NewRedisPresence(redisClient, chat.DefaultPresenceTTL)
	chatRepo := chat.NewRepository(database.Conn)
	chatService := chat.NewService(chatRepo, departmentService, presence, feed)
	projection := chat.NewProjection(chatService, hub)

	dashboardService := dashboard.NewService(dashboard.Sources{
		Students:         userService.Count,
		Announcements:    announcementService.Count,
		Departments:      departmentService.Count,
		PendingInquiries: inquiryService.CountPending,
		UnreadMessages:   chatRepo.CountUnread,
	})

	if cfg.Seed {
		seeders := []struct {
			name string
			run  func(context.Context) error
		}{
			{"departments", departmentService.Seed},
			{"users", userService.Seed},
			{"announcements", announcementService.Seed},
			{"inquiries", inquiryService.Seed},
			{"notifications", notificationService.Seed},
			{"conversations", chatService.Seed},
		}
		for _, s := range seeders {
			if err := s.run(ctx); err != nil {
				log.Fatalf("Seeding %s failed: %v", s.name, err)
			}
		}
	}

	app := &application{
		hub:           hub,
		auth:          myMiddleware.NewAuthMiddleware(userService),
		users:         user.NewHandler(userService),
		departments:   department.NewHandler(departmentService),
		announcements: announcement.NewHandler(announcementService),
		inquiries:     inquiry.NewHandler(inquiryService),
		notifications: notification.NewHandler(notificationService, notification.AudienceUser),
		adminNotices:  notification.NewHandler(notificationService, notification.AudienceAdmin),
		chat:          chat.NewHandler(chatService, projection, presence),
		dashboard:     dashboard.NewHandler(dashboardService),
	}

	// 6. Serve
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.routes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
