package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/hemline/stylist/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := server.NewServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Stylist.Sessions.Janitor(ctx, srv.Stylist.Config.SessionIdle()/4, srv.Stylist.Config.SessionIdle())

	r := srv.SetupRouter()

	log.Printf("Starting stylist server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
