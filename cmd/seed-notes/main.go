package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/studymate/studymate-backend/internal/config"
	"github.com/studymate/studymate-backend/internal/database"
	"github.com/studymate/studymate-backend/internal/logger"
	"github.com/studymate/studymate-backend/internal/model"
	"github.com/studymate/studymate-backend/internal/repository"
	"github.com/studymate/studymate-backend/internal/service"
)

const usage = "usage: seed-notes <owner-email> [notes=3] [questions=10]"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	email := os.Args[1]
	notes := intArg(2, 3)
	questions := intArg(3, 10)

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	noteService := service.NewNoteService(repository.NewNoteRepository(pool))

	owner, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Owner not found, run create-user first")
	}
	actor := service.Actor{UserID: owner.ID, Role: owner.Role}

	fmt.Printf("=== Seeding %d shared notes for %s ===\n", notes, owner.DisplayName())

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	successCount := 0
	for i := 0; i < notes; i++ {
		req := &model.CreateNoteRequest{
			Title:       fmt.Sprintf("Arithmetic drill #%d", i+1),
			Description: "Generated practice questions.",
			IsShared:    true,
			Questions:   drill(rng, questions),
		}

		note, err := noteService.Create(ctx, actor, req)
		if err != nil {
			fmt.Printf("Error creating %q: %v\n", req.Title, err)
			continue
		}
		successCount++
		fmt.Printf("Created %q (%s)\n", note.Title, note.ID)
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d notes.\n", successCount, notes)
}

// drill builds n addition questions with one correct choice among four.
func drill(rng *rand.Rand, n int) []model.CreateQuestionRequest {
	out := make([]model.CreateQuestionRequest, n)
	for i := range out {
		a, b := rng.IntN(50)+1, rng.IntN(50)+1
		sum := a + b
		choices := []model.ChoiceRequest{{Content: strconv.Itoa(sum), Answer: true}}
		for _, off := range []int{-2, 1, 10} {
			choices = append(choices, model.ChoiceRequest{Content: strconv.Itoa(sum + off)})
		}
		rng.Shuffle(len(choices), func(x, y int) { choices[x], choices[y] = choices[y], choices[x] })

		out[i] = model.CreateQuestionRequest{
			QuestionTitle: fmt.Sprintf("What is %d + %d?", a, b),
			Choices:       choices,
		}
	}
	return out
}

func intArg(pos, fallback int) int {
	if len(os.Args) <= pos {
		return fallback
	}
	n, err := strconv.Atoi(os.Args[pos])
	if err != nil || n <= 0 {
		fmt.Println(usage)
		os.Exit(2)
	}
	return n
}
