package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medbank/internal/aggregate"
	"medbank/internal/config"
	"medbank/internal/logger"
	"medbank/internal/model"
	"medbank/internal/repository"
	"medbank/internal/service"
	"medbank/internal/trigger"
)

// Seeds a demo tenant with a three-level taxonomy and a spread of
// questions. Questions go through the service layer so the trigger
// engine populates the count and sampling aggregates along the way.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("failed to ping Redis")
	}

	db := client.Database(cfg.MongoDB)
	questionRepo := repository.NewQuestionRepo(db)
	taxonomyRepo := repository.NewTaxonomyRepo(db)
	statRepo := repository.NewStatRepo(db)
	bookmarkRepo := repository.NewBookmarkRepo(db)
	countsRepo := repository.NewStatsCountsRepo(db)
	quizRepo := repository.NewQuizRepo(db)

	store := aggregate.NewRedisStore(rdb)
	triggers := trigger.NewEngine(store, countsRepo, log)
	syncSvc := service.NewTaxonomySyncService(statRepo, bookmarkRepo, countsRepo, log)
	questionSvc := service.NewQuestionService(questionRepo, taxonomyRepo, quizRepo,
		statRepo, bookmarkRepo, triggers, syncSvc)

	tenant := cfg.DefaultTenantID

	themes := []struct {
		name      string
		subthemes []struct {
			name   string
			groups []string
		}
	}{
		{"Trauma", []struct {
			name   string
			groups []string
		}{
			{"Fractures", []string{"Open fractures", "Stress fractures"}},
			{"Burns", []string{"Thermal burns"}},
		}},
		{"Cardiology", []struct {
			name   string
			groups []string
		}{
			{"Arrhythmia", []string{"Atrial fibrillation", "Heart block"}},
		}},
	}

	total := 0
	for _, t := range themes {
		theme := &model.Theme{TenantID: tenant, Name: t.name}
		if err := taxonomyRepo.CreateTheme(ctx, theme); err != nil {
			log.WithError(err).Fatal("failed to create theme")
		}
		for _, st := range t.subthemes {
			sub := &model.Subtheme{TenantID: tenant, ThemeID: theme.ID, Name: st.name}
			if err := taxonomyRepo.CreateSubtheme(ctx, sub); err != nil {
				log.WithError(err).Fatal("failed to create subtheme")
			}
			for _, gname := range st.groups {
				grp := &model.Group{TenantID: tenant, SubthemeID: sub.ID, Name: gname}
				if err := taxonomyRepo.CreateGroup(ctx, grp); err != nil {
					log.WithError(err).Fatal("failed to create group")
				}
				for i := 1; i <= 5; i++ {
					total++
					_, err := questionSvc.Create(ctx, &model.Question{
						TenantID:   tenant,
						ThemeID:    theme.ID,
						SubthemeID: sub.ID,
						GroupID:    grp.ID,
						Title:      fmt.Sprintf("%s #%d", gname, i),
						Text:       fmt.Sprintf("Demo question %d for %s.", i, gname),
						Options:    []string{"A", "B", "C", "D"},
						CorrectIdx: i % 4,
					})
					if err != nil {
						log.WithError(err).Fatal("failed to create question")
					}
				}
			}
			// A few questions classified only down to the subtheme.
			for i := 1; i <= 3; i++ {
				total++
				_, err := questionSvc.Create(ctx, &model.Question{
					TenantID:   tenant,
					ThemeID:    theme.ID,
					SubthemeID: sub.ID,
					Title:      fmt.Sprintf("%s general #%d", st.name, i),
					Text:       fmt.Sprintf("Demo question %d for %s.", i, st.name),
					Options:    []string{"A", "B", "C", "D"},
					CorrectIdx: i % 4,
				})
				if err != nil {
					log.WithError(err).Fatal("failed to create question")
				}
			}
		}
	}

	log.WithField("questions", total).Info("seed complete")
}
