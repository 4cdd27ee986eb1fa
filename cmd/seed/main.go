package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/database"
	"github.com/stemsi/quizguard-backend/internal/logger"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/repository"
)

var demoQuizzes = []model.Quiz{
	{Title: "Algebra Basics", Description: "Linear equations and simple factoring.", DurationMinutes: 30},
	{Title: "World Geography", Description: "Capitals, rivers and mountain ranges.", DurationMinutes: 20},
	{Title: "Intro to Chemistry", Description: "Atoms, the periodic table and bonding.", DurationMinutes: 45},
}

var demoStudents = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Nanda Pratama",
	"Oki Setiana", "Putri Dian", "Rafi Ahmad", "Siska Saraswati", "Toni Setiawan",
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	quizRepo := repository.NewQuizRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	fmt.Println("=== Seeding quizzes ===")
	for i := range demoQuizzes {
		q := demoQuizzes[i]

		// Titles double as the natural key so re-running the seed is harmless.
		err := pool.QueryRow(ctx, "SELECT id FROM quizzes WHERE title = $1", q.Title).Scan(&q.ID)
		switch {
		case err == nil:
			fmt.Printf("Found existing quiz %q with ID: %d\n", q.Title, q.ID)
		case errors.Is(err, pgx.ErrNoRows):
			if err := quizRepo.Create(ctx, &q); err != nil {
				log.Fatal().Err(err).Str("title", q.Title).Msg("Failed to create quiz")
			}
			fmt.Printf("Created quiz %q with ID: %d\n", q.Title, q.ID)
		default:
			log.Fatal().Err(err).Msg("Failed to check existing quiz")
		}
	}

	fmt.Printf("\n=== Seeding %d students ===\n", len(demoStudents))
	successCount := 0
	for i, name := range demoStudents {
		student := &model.Student{
			Name:  name,
			Email: fmt.Sprintf("student%02d@quizguard.local", i+1),
		}
		if err := studentRepo.Upsert(ctx, student); err != nil {
			fmt.Printf("Error creating student %s (%s): %v\n", student.Name, student.Email, err)
			continue
		}
		successCount++
		if (i+1)%5 == 0 {
			fmt.Printf("Seeded %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, len(demoStudents))
}
