package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"taskhive/internal/config"
	"taskhive/internal/db"
	"taskhive/internal/model"
	"taskhive/internal/repository"
	"taskhive/internal/service"
)

// seedTask is one demo task definition.
type seedTask struct {
	title  string
	desc   string
	status model.TaskStatus
}

var demoTasks = []seedTask{
	{"Write project proposal", "Draft the scope and timeline", model.StatusPending},
	{"Review pull requests", "Catch up on the review queue", model.StatusPending},
	{"Plan sprint retro", "", model.StatusPending},
	{"Update dependencies", "Quarterly dependency bump", model.StatusPending},
	{"Implement search endpoint", "Case-insensitive title and description search", model.StatusInProgress},
	{"Fix pagination off-by-one", "", model.StatusInProgress},
	{"Refactor auth middleware", "Split token verification from user resolution", model.StatusInProgress},
	{"Set up CI pipeline", "", model.StatusCompleted},
	{"Write onboarding docs", "First-day setup guide", model.StatusCompleted},
	{"Migrate database schema", "", model.StatusCompleted},
	{"Benchmark list endpoint", "", model.StatusCompleted},
	{"Evaluate GraphQL gateway", "Dropped in favor of REST", model.StatusCancelled},
}

func main() {
	log.Println("Starting seed script...")

	_ = godotenv.Load()
	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	users := service.NewUserService(userRepo)

	name := "Alice Example"
	demoUser, err := users.Create(ctx, "alice@example.com", "password123", &name)
	if err != nil {
		log.Fatalf("Failed to create demo user (already seeded?): %v", err)
	}
	log.Printf("Created demo user %s (%s)", demoUser.Email, demoUser.ID)

	for _, t := range demoTasks {
		task := &model.Task{
			Title:  t.title,
			Status: t.status,
			UserID: demoUser.ID,
		}
		if t.desc != "" {
			desc := t.desc
			task.Description = &desc
		}
		if err := taskRepo.Create(ctx, task); err != nil {
			log.Fatalf("Failed to create task %q: %v", t.title, err)
		}
	}
	log.Printf("Seeded %d tasks for %s", len(demoTasks), demoUser.Email)
}
