package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"taskhive/internal/auth"
	"taskhive/internal/cache"
	"taskhive/internal/config"
	"taskhive/internal/db"
	"taskhive/internal/handler"
	"taskhive/internal/model"
	"taskhive/internal/repository"
	"taskhive/internal/router"
	"taskhive/internal/service"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userService, jwtService)
	taskService := service.NewTaskService(taskRepo, userService, cacheClient)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, userService)
	taskHandler := handler.NewTaskHandler(taskService)

	router.Register(e, authService, authHandler, taskHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
