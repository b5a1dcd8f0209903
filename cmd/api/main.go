package main

import (
	"io"
	"log"
	"os"

	"github.com/lukedavisbbd/security-todos/internal/config"
	"github.com/lukedavisbbd/security-todos/internal/logging"
	"github.com/lukedavisbbd/security-todos/internal/repository/postgres"
	"github.com/lukedavisbbd/security-todos/internal/service"
	transporthttp "github.com/lukedavisbbd/security-todos/internal/transport/http"
	"github.com/lukedavisbbd/security-todos/internal/transport/mail"
	"github.com/lukedavisbbd/security-todos/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		defer writer.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, writer))
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()

	codec, err := util.NewSecretCodec(cfg.MasterKey2FA)
	if err != nil {
		log.Fatalf("build secret codec: %v", err)
	}
	jwts := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)

	credentialRepo := postgres.NewCredentialRepo(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepo(db)
	resetTokenRepo := postgres.NewPasswordResetTokenRepo(db)
	roleRepo := postgres.NewRoleRepo(db)

	var mailer service.ResetTokenMailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewPasswordResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	auth := service.NewAuthService(credentialRepo, refreshTokenRepo, roleRepo, codec, jwts, cfg.RefreshTTL, cfg.TOTPIssuer)
	resets := service.NewPasswordResetService(credentialRepo, resetTokenRepo, codec, mailer, cfg.ResetTokenTTL)

	cookies := transporthttp.CookieManager{
		JWTName:     cfg.JWTCookie,
		RefreshName: cfg.RefreshCookie,
	}
	guard := transporthttp.NewSessionGuard(auth, jwts, cookies)
	handler := transporthttp.NewAuthHandler(auth, resets, cookies)

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterAuthRoutes(e, handler, guard)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
