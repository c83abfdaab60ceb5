package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"prepdeck/internal/model"
	"prepdeck/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "prepdeck"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewQuestionRepo(client.Database(mongoDB))

	existing, err := repo.GetAll(ctx)
	if err != nil {
		log.Fatalf("Failed to read question bank: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("Question bank already holds %d questions, nothing to do\n", len(existing))
		return
	}

	questions := []model.Question{
		{
			Text:          "Which HTTP status code indicates that a resource was created?",
			Kind:          model.KindMultipleChoice,
			Options:       []string{"200", "201", "204", "302"},
			CorrectAnswer: "201",
		},
		{
			Text:          "What data structure does a standard FIFO queue follow?",
			Kind:          model.KindMultipleChoice,
			Options:       []string{"Last in, first out", "First in, first out", "Priority ordered", "Random access"},
			CorrectAnswer: "First in, first out",
		},
		{
			Text:          "Which SQL clause filters rows after aggregation?",
			Kind:          model.KindMultipleChoice,
			Options:       []string{"WHERE", "HAVING", "GROUP BY", "ORDER BY"},
			CorrectAnswer: "HAVING",
		},
		{
			Text:          "Which of these is NOT a NoSQL database?",
			Kind:          model.KindMultipleChoice,
			Options:       []string{"MongoDB", "Redis", "PostgreSQL", "Cassandra"},
			CorrectAnswer: "PostgreSQL",
		},
		{
			Text:          "TCP guarantees in-order delivery of bytes within a connection.",
			Kind:          model.KindTrueFalse,
			CorrectAnswer: "true",
		},
		{
			Text:          "A binary search requires the input to be sorted.",
			Kind:          model.KindTrueFalse,
			CorrectAnswer: "true",
		},
		{
			Text:          "HTTP is a stateful protocol.",
			Kind:          model.KindTrueFalse,
			CorrectAnswer: "false",
		},
		{
			Text:          "Indexes always speed up both reads and writes in a relational database.",
			Kind:          model.KindTrueFalse,
			CorrectAnswer: "false",
		},
		{
			Text: "Briefly explain the difference between optimistic and pessimistic locking.",
			Kind: model.KindShortAnswer,
		},
		{
			Text: "Describe one strategy for invalidating a cache in front of a database.",
			Kind: model.KindShortAnswer,
		},
	}

	for i := range questions {
		questions[i].ID = uuid.New().String()
		if err := repo.Create(ctx, &questions[i]); err != nil {
			log.Fatalf("Failed to insert question %q: %v", questions[i].Text, err)
		}
	}

	fmt.Printf("Seeded %d quiz questions into %s\n", len(questions), mongoDB)
}
