// Command admin provisions back-office accounts.
//
//	ADMISSIONS_ADMIN_PASSWORD=... admin -email coordinacion@ufn.edu.mx -name "Coordinación"
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/admissions-api/internal/config"
	"github.com/jwalitptl/admissions-api/internal/repository/postgres"
	authService "github.com/jwalitptl/admissions-api/internal/service/auth"
	pkgauth "github.com/jwalitptl/admissions-api/pkg/auth"
	"github.com/jwalitptl/admissions-api/pkg/security"
)

func main() {
	email := flag.String("email", "", "admin email address")
	name := flag.String("name", "", "display name")
	flag.Parse()

	password := os.Getenv("ADMISSIONS_ADMIN_PASSWORD")
	if *email == "" || password == "" {
		log.Fatal().Msg("-email and ADMISSIONS_ADMIN_PASSWORD are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	svc := authService.NewService(
		postgres.NewAdminRepository(db),
		pkgauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
		security.NewBcryptHasher(0),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := svc.CreateAdmin(ctx, *email, *name, password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create admin")
	}
	log.Info().Str("id", user.ID.String()).Str("email", user.Email).Msg("admin created")
}
