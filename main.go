package main

import (
	"log"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	keywords := defaultKeywordTable()
	if cfg.KeywordPath != "" {
		keywords, err = LoadKeywordTable(cfg.KeywordPath)
		if err != nil {
			log.Fatalf("Failed to load keyword table: %v", err)
		}
		log.Printf("Loaded keyword table from %s", cfg.KeywordPath)
	}

	classifier := NewClassifier(cfg, keywords)

	StartDailyScheduler(cfg, db, keywords)

	gin.SetMode(gin.ReleaseMode)
	server := NewServer(cfg, db, classifier, keywords)

	log.Printf("Starting FeedbackPulse on %s (classifier: %s, provider: %s)",
		cfg.HTTPAddr, cfg.ClassifierMode, cfg.LLMProvider)
	if err := server.Routes().Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
