package main

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server is the thin HTTP surface over the pipeline: ingestion, dashboard
// stats and the audit log. Presentation (charts, word clouds) lives elsewhere
// and only consumes these JSON payloads.
type Server struct {
	cfg        Config
	db         *sql.DB
	classifier *Classifier
	keywords   KeywordTable
}

func NewServer(cfg Config, db *sql.DB, classifier *Classifier, keywords KeywordTable) *Server {
	return &Server{cfg: cfg, db: db, classifier: classifier, keywords: keywords}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/feedback", s.handleIngest)
		api.GET("/feedback", s.handleListFeedback)
		api.GET("/stats", s.handleStats)
		api.GET("/insights", s.handleInsights)
		api.GET("/analysis-logs", s.handleAnalysisLogs)
		api.POST("/analysis/run", s.handleRunAnalysis)
	}
	return r
}

type ingestRequest struct {
	Source         string `json:"source"`
	RawText        string `json:"raw_text"`
	Sentiment      string `json:"sentiment"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Summary        string `json:"summary"`
	PriorityReason string `json:"priority_reason"`
	CreatedAt      string `json:"created_at"`
}

// handleIngest stores one feedback record. Classification runs first, then
// caller-supplied fields override per field. The response is success once the
// record is durably stored, whatever the classification outcome.
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Source == "" || req.RawText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and raw_text are required"})
		return
	}

	labels := s.classifier.Classify(req.Source, req.RawText)
	labels = applyOverrides(labels, overridesFromRequest(req))

	now := time.Now()
	rec := FeedbackRecord{
		ID:             uuid.NewString(),
		Source:         req.Source,
		RawText:        req.RawText,
		CreatedAt:      normalizeCreatedAt(req.CreatedAt, now),
		Sentiment:      labels.Sentiment,
		Priority:       labels.Priority,
		Category:       labels.Category,
		Summary:        labels.Summary,
		PriorityReason: labels.PriorityReason,
	}
	if err := InsertFeedback(s.db, rec); err != nil {
		log.Printf("ingest insert error source=%s: %v", req.Source, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store feedback"})
		return
	}
	log.Printf("ingest stored id=%s source=%s labeled=%t", rec.ID, rec.Source, !labels.Empty())
	c.JSON(http.StatusCreated, rec)
}

// overridesFromRequest keeps only override values that pass the same
// validation the classifier applies: invalid enums are dropped, not coerced.
func overridesFromRequest(req ingestRequest) LabelSet {
	var o LabelSet
	if ValidSentiment(req.Sentiment) {
		o.Sentiment = req.Sentiment
	}
	if ValidPriority(req.Priority) {
		o.Priority = req.Priority
	}
	o.Category = req.Category
	o.Summary = truncateSummary(req.Summary)
	o.PriorityReason = req.PriorityReason
	return o
}

func (s *Server) handleListFeedback(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	records, err := GetRecentFeedback(s.db, limit)
	if err != nil {
		log.Printf("list feedback error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feedback"})
		return
	}
	if records == nil {
		records = []FeedbackRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleStats(c *gin.Context) {
	records, err := GetAllFeedback(s.db)
	if err != nil {
		log.Printf("stats load error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feedback"})
		return
	}
	c.JSON(http.StatusOK, Aggregate(records, s.keywords, time.Now()))
}

// handleInsights returns the stats plus the LLM narrative. The insights key
// is omitted entirely when the composer declines (zero records or no
// provider), so consumers never see an empty placeholder section.
func (s *Server) handleInsights(c *gin.Context) {
	records, err := GetAllFeedback(s.db)
	if err != nil {
		log.Printf("insights load error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feedback"})
		return
	}
	stats := Aggregate(records, s.keywords, time.Now())

	payload := gin.H{"stats": stats}
	if narrative, ok := ComposeInsights(s.cfg, stats, "all feedback"); ok {
		payload["insights"] = narrative
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleAnalysisLogs(c *gin.Context) {
	since := time.Now().AddDate(0, 0, -7)
	logs, err := GetAnalysisLogsSince(s.db, since)
	if err != nil {
		log.Printf("analysis logs load error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis logs"})
		return
	}
	if logs == nil {
		logs = []AnalysisLogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

// handleRunAnalysis triggers a run through the same per-day claim the
// scheduler uses, so a manual trigger can never duplicate a scheduled one.
func (s *Server) handleRunAnalysis(c *gin.Context) {
	result, ran, err := TriggerDailyRun(s.cfg, s.db, s.keywords, time.Now())
	if err != nil {
		log.Printf("manual analysis run error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis run failed"})
		return
	}
	if !ran {
		c.JSON(http.StatusConflict, gin.H{"error": "analysis already ran today"})
		return
	}
	c.JSON(http.StatusOK, result)
}
