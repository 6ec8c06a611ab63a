package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/maskyy/caketruth/config"
	"github.com/maskyy/caketruth/routes"
	"github.com/maskyy/caketruth/services"
	"github.com/maskyy/caketruth/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.OpenDB(cfg.DB)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := config.Seed(db); err != nil {
		log.Fatalf("seed: %v", err)
	}

	var mailer utils.Mailer
	if cfg.SESEmail != "" {
		m, err := utils.NewSESMailer(context.Background(), cfg.AWSRegion, cfg.SESEmail)
		if err != nil {
			log.Fatalf("ses: %v", err)
		}
		mailer = m
	} else {
		log.Printf("SES_EMAIL not set; moderation emails disabled")
	}

	tokens := &utils.TokenIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}
	hub := services.NewRealtimeHub()
	notifier := services.NewNotifier(db, hub, mailer)

	r := routes.SetupRouter(routes.Deps{
		Tokens:    tokens,
		Auth:      services.NewAuthService(db, tokens),
		Users:     services.NewUserService(db),
		Catalog:   services.NewCatalogService(db, notifier),
		Taxonomy:  services.NewTaxonomyService(db),
		Meals:     services.NewMealService(db),
		Diary:     services.NewDiaryService(db, notifier),
		Analytics: services.NewAnalyticsService(db),
		Realtime:  hub,
	})

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
