package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hemline/stylist/internal/catalog"
	"github.com/hemline/stylist/internal/config"
	"github.com/hemline/stylist/internal/core"
	"github.com/hemline/stylist/internal/knowledge"
	"github.com/hemline/stylist/internal/llm"
)

// Interactive terminal session against the same pipeline the server runs.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyEnv()

	kb, err := knowledge.Load(cfg.Data.KnowledgeDir)
	if err != nil {
		log.Fatalf("Failed to load knowledge base: %v", err)
	}
	products, err := catalog.LoadCSV(cfg.Data.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	ctx := context.Background()
	var llmClient llm.LLMClient
	var embedder llm.EmbedderClient
	if cfg.LLM.Provider != "" {
		llmClient, embedder, err = llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
	}

	stylist := core.NewStylist(ctx, cfg, kb, products, llmClient, embedder)

	fmt.Println("Stylist ready. Describe what you're looking for.")
	fmt.Println("Commands: 'status', 'reset', 'quit'.")

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "bye":
			fmt.Println("Goodbye!")
			return
		case "status":
			for component, msg := range stylist.Status() {
				fmt.Printf("  %s: %s\n", component, msg)
			}
			continue
		case "reset":
			if sessionID != "" {
				stylist.ResetSession(sessionID)
			}
			fmt.Println("Started over. What are you looking for?")
			continue
		}

		result, err := stylist.ProcessTurn(ctx, sessionID, line)
		if err != nil {
			fmt.Printf("Something went wrong: %v\n", err)
			continue
		}
		sessionID = result.SessionID
		fmt.Println(result.Reply)
	}
}
