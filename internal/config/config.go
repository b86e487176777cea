package config

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEscalationKeywords is the built-in trigger set used when
// ESCALATION_KEYWORDS is not set.
var DefaultEscalationKeywords = []string{
	"hack", "hacking", "illegal", "fraud", "steal", "breach",
	"attack", "exploit", "bomb", "terror", "kill",
}

type Config struct {
	Port               int
	DatabaseURL        string
	LogLevel           string
	GroqAPIKey         string
	GroqModels         []string
	HistoryWindow      int
	FAQPath            string
	FAQMatchThreshold  float64
	EscalationKeywords []string
	NatsURL            string
	NatsToken          string
	APIToken           string
}

func Load() Config {
	return Config{
		Port:               envInt("CONCIERGE_PORT", 8780),
		DatabaseURL:        envStr("DATABASE_URL", "concierge.db"),
		LogLevel:           envStr("LOG_LEVEL", "info"),
		GroqAPIKey:         envStr("GROQ_API_KEY", ""),
		GroqModels:         envList("GROQ_MODELS", []string{"llama-3.1-8b-instant"}),
		HistoryWindow:      envInt("HISTORY_WINDOW", 20),
		FAQPath:            envStr("FAQ_PATH", "faqs.json"),
		FAQMatchThreshold:  envFloat("FAQ_MATCH_THRESHOLD", 0.3),
		EscalationKeywords: envList("ESCALATION_KEYWORDS", DefaultEscalationKeywords),
		NatsURL:            envStr("NATS_URL", ""),
		NatsToken:          envStr("NATS_TOKEN", ""),
		APIToken:           envStr("CONCIERGE_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envList parses a comma-separated value, trimming whitespace and dropping
// empty elements.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
