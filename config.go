package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Classifier modes. "auto" uses the configured LLM provider and falls back to
// the keyword heuristic on failure; "heuristic" never calls the provider;
// "off" leaves records unlabeled unless the caller supplies overrides.
const (
	ClassifierModeAuto      = "auto"
	ClassifierModeHeuristic = "heuristic"
	ClassifierModeOff       = "off"
)

type Config struct {
	HTTPAddr     string `yaml:"http_addr"`
	DBPath       string `yaml:"db_path"`
	DashboardURL string `yaml:"dashboard_url"`

	SlackWebhookURL string `yaml:"slack_webhook_url"`

	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	ClassifierMode string `yaml:"classifier_mode"`
	KeywordPath    string `yaml:"keyword_table_path"`
	DailySchedule  string `yaml:"daily_schedule"`
	Timezone       string `yaml:"timezone"`

	Location *time.Location
}

func LoadConfig() Config {
	var cfg Config

	// Optional .env for local runs; env vars set in the environment win.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.HTTPAddr, "HTTP_ADDR")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.DashboardURL, "DASHBOARD_URL")
	envOverride(&cfg.SlackWebhookURL, "SLACK_WEBHOOK_URL")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.ClassifierMode, "CLASSIFIER_MODE")
	envOverride(&cfg.KeywordPath, "KEYWORD_TABLE_PATH")
	envOverride(&cfg.DailySchedule, "DAILY_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./feedbackpulse.db"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.ClassifierMode == "" {
		cfg.ClassifierMode = ClassifierModeAuto
	}
	if cfg.DailySchedule == "" {
		cfg.DailySchedule = "0 9 * * *"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	switch cfg.ClassifierMode {
	case ClassifierModeAuto, ClassifierModeHeuristic, ClassifierModeOff:
	default:
		log.Fatalf("classifier_mode must be 'auto', 'heuristic' or 'off', got '%s'", cfg.ClassifierMode)
	}

	switch cfg.LLMProvider {
	case "anthropic", "openai":
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
		cfg.Timezone = time.Local.String()
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.SlackWebhookURL != "" {
		if err := ValidateWebhookURL(cfg.SlackWebhookURL); err != nil {
			log.Printf("slack_webhook_url rejected (%v); delivery disabled", err)
			cfg.SlackWebhookURL = ""
		}
	}

	if cfg.KeywordPath != "" {
		if _, err := LoadKeywordTable(cfg.KeywordPath); err != nil {
			log.Fatalf("invalid keyword_table_path '%s': %v", cfg.KeywordPath, err)
		}
	}

	return cfg
}

// InferenceConfigured reports whether an LLM call can be attempted at all.
func (c Config) InferenceConfigured() bool {
	if c.ClassifierMode == ClassifierModeOff || c.ClassifierMode == ClassifierModeHeuristic {
		return false
	}
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey != ""
	default:
		return c.AnthropicAPIKey != ""
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func utcRunDate(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}
