// server/cmd/api/main.go
package main

import (
	"context"
	"os"
	"time"

	"care-referral-api-server/config"
	"care-referral-api-server/internal/api/routes"
	"care-referral-api-server/internal/auth"
	"care-referral-api-server/internal/database"
	"care-referral-api-server/internal/ledger"
	"care-referral-api-server/internal/referral"
	"care-referral-api-server/internal/s3"
	"care-referral-api-server/internal/socket"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	client, db, err := database.Connect(context.Background(), cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to mongo")
	}
	defer client.Disconnect(context.Background())

	if err := database.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("could not create indexes")
	}
	if err := database.SeedSuperAdmin(context.Background(), db, log); err != nil {
		log.Fatal().Err(err).Msg("could not seed super admin")
	}

	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize S3 uploader")
	}

	expiration, err := time.ParseDuration(cfg.JWT.Expiration)
	if err != nil {
		expiration = 24 * time.Hour
	}
	signer := auth.NewSigner(cfg.JWT.Secret, expiration)

	wsHub := socket.NewHub(log)
	resourceLedger := ledger.New(db, wsHub, log)
	store := referral.NewStore(db)
	coordinator := referral.NewCoordinator(resourceLedger, store, wsHub, log)

	router := routes.SetupRouter(cfg, db, resourceLedger, store, coordinator, s3Uploader, wsHub, signer, log)

	log.Info().Str("port", cfg.Server.Port).Msg("starting API server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
