package config

import (
	"os"
	"strconv"
)

type Config struct {
	IntakePort          int
	ComplaintsPort      int
	DatabaseURL         string
	LogLevel            string
	ClassifierURL       string
	DialogueURL         string
	ComplaintServiceURL string
	NatsURL             string
	NatsToken           string
}

func Load() Config {
	return Config{
		IntakePort:          envInt("INTAKE_PORT", 8760),
		ComplaintsPort:      envInt("COMPLAINTSD_PORT", 8761),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		ClassifierURL:       envStr("CLASSIFIER_URL", "http://127.0.0.1:5000"),
		DialogueURL:         envStr("DIALOGUE_API_URL", ""),
		ComplaintServiceURL: envStr("COMPLAINT_SERVICE_URL", "http://127.0.0.1:8761"),
		NatsURL:             envStr("NATS_URL", ""),
		NatsToken:           envStr("NATS_TOKEN", ""),
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
