package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medbank/internal/aggregate"
	"medbank/internal/config"
	"medbank/internal/logger"
	"medbank/internal/repository"
	"medbank/internal/service"
	"medbank/internal/transport/rest"
	"medbank/internal/trigger"
	"medbank/internal/workflow"
)

func main() {
	// .env is optional; real deployments configure via environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("failed to ping MongoDB")
	}
	log.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("failed to ping Redis")
	}
	log.Info("connected to Redis")

	// Repositories
	questionRepo := repository.NewQuestionRepo(db)
	taxonomyRepo := repository.NewTaxonomyRepo(db)
	statRepo := repository.NewStatRepo(db)
	bookmarkRepo := repository.NewBookmarkRepo(db)
	countsRepo := repository.NewStatsCountsRepo(db)
	jobRepo := repository.NewJobRepo(db)
	quizRepo := repository.NewQuizRepo(db)
	sessionRepo := repository.NewSessionRepo(db)

	// Aggregates and triggers
	store := aggregate.NewRedisStore(rdb)
	triggers := trigger.NewEngine(store, countsRepo, log)

	// Workflow
	runner := workflow.NewRunner(jobRepo, questionRepo, statRepo, bookmarkRepo,
		quizRepo, sessionRepo, store, cfg, log)
	worker := workflow.NewWorker(runner, jobRepo, cfg.Workers, log)
	if err := worker.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to recover unfinished jobs")
	}

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.DefaultTenantID)
	syncSvc := service.NewTaxonomySyncService(statRepo, bookmarkRepo, countsRepo, log)
	questionSvc := service.NewQuestionService(questionRepo, taxonomyRepo, quizRepo,
		statRepo, bookmarkRepo, triggers, syncSvc)
	quizSvc := service.NewQuizService(quizRepo, sessionRepo)
	statSvc := service.NewStatService(questionRepo, statRepo, bookmarkRepo, countsRepo, triggers)
	jobSvc := service.NewJobService(jobRepo, taxonomyRepo, worker, cfg.DefaultTenantID)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		QuestionService: questionSvc,
		QuizService:     quizSvc,
		StatService:     statSvc,
		JobService:      jobSvc,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen and serve")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	// In-flight workflow steps persist their checkpoints before the
	// pool drains, so interrupted jobs resume on next start.
	worker.Stop()

	log.Info("server exited")
}
