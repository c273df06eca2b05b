// Command create-admin bootstraps an administrator account, or promotes an existing
// account with the given email to administrator.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/migrations"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/database"
	"github.com/noah-isme/campus-events-api/pkg/logger"
	"github.com/noah-isme/campus-events-api/pkg/validation"
)

func main() {
	var req models.SignupRequest
	flag.StringVar(&req.Name, "name", "Admin User", "display name")
	flag.StringVar(&req.Email, "email", "", "admin email (required)")
	flag.StringVar(&req.Password, "password", os.Getenv("ADMIN_PASSWORD"), "password for a new account, defaults to $ADMIN_PASSWORD")
	flag.StringVar(&req.PRN, "prn", "ADMIN001", "PRN for a new account")
	flag.StringVar(&req.Class, "class", "Admin", "class for a new account")
	flag.StringVar(&req.Division, "division", "A", "division for a new account")
	flag.Parse()

	if req.Email == "" {
		flag.Usage()
		os.Exit(2)
	}
	req.Role = models.RoleAdmin

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, logr, req); err != nil {
		logr.Fatal("create admin failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, req models.SignupRequest) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		return err
	}

	repo := repository.NewUserRepository(db)
	cacheSvc := service.NewCacheService(nil, nil, 0, logr, false)
	users := service.NewUserService(repo, validation.New(), cacheSvc, cfg.Auth.BcryptCost, logr)

	existing, err := repo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			logr.Info("account is already an administrator", zap.String("email", existing.Email))
			return nil
		}
		role := string(models.RoleAdmin)
		system := &models.JWTClaims{Role: models.RoleAdmin}
		if _, err := users.Update(ctx, existing.ID, dto.UpdateUserRequest{Role: &role}, system); err != nil {
			return err
		}
		logr.Info("account promoted to administrator", zap.String("email", existing.Email))
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	user, err := users.Create(ctx, req)
	if err != nil {
		return err
	}
	logr.Info("administrator created", zap.String("email", user.Email), zap.String("user_id", user.ID))
	return nil
}
