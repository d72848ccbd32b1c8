package server

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hemline/stylist/internal/catalog"
	"github.com/hemline/stylist/internal/config"
	"github.com/hemline/stylist/internal/core"
	"github.com/hemline/stylist/internal/knowledge"
	"github.com/hemline/stylist/internal/llm"
)

type Server struct {
	Stylist *core.Stylist
}

// NewServer loads configuration, the knowledge base and the catalog, and
// builds the pipeline. Knowledge or catalog load failure is fatal: the
// service refuses to start on partial data.
func NewServer() *Server {
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
	log.Printf("Loaded %d vibe mappings from %s", kb.Len(), cfg.Data.KnowledgeDir)

	products, err := catalog.LoadCSV(cfg.Data.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Loaded %d products from %s", len(products), cfg.Data.CatalogPath)

	ctx := context.Background()
	var llmClient llm.LLMClient
	var embedder llm.EmbedderClient
	if cfg.LLM.Provider != "" {
		llmClient, embedder, err = llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			log.Fatalf("Failed to initialize LLM client: %v", err)
		}
	} else {
		log.Printf("No LLM provider configured; inference fallback disabled, similarity is lexical-only")
	}

	return &Server{
		Stylist: core.NewStylist(ctx, cfg, kb, products, llmClient, embedder),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	r.POST("/chat", s.Chat)
	r.POST("/reset", s.Reset)
	r.GET("/status", s.Status)
	r.GET("/catalog/summary", s.CatalogSummary)

	return r
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func (s *Server) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := s.Stylist.ProcessTurn(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		log.Printf("Failed to process turn: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type ResetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (s *Server) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !s.Stylist.ResetSession(req.SessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) Status(c *gin.Context) {
	c.JSON(http.StatusOK, s.Stylist.Status())
}

func (s *Server) CatalogSummary(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Summarize(s.Stylist.Catalog))
}
