package config

import (
	"os"
	"strconv"
)

type Config struct {
	BackendURL        string // Базовый URL бэкенд-сервисов (склад, продукты, планирование)
	ServerPort        string
	Environment       string
	PlanPollSeconds   int // Интервал опроса производственного плана для дашборда
	SimulationDelayMs int // Минимальная длительность симуляции (мс)
	HTTPTimeoutSecs   int // Таймаут HTTP клиентов к бэкенд-сервисам
}

func Load() *Config {
	// Railway/Docker могут передавать URL бэкенда под разными именами
	backendURL := getEnv("BACKEND_API_URL", "")
	if backendURL == "" {
		backendURL = getEnv("API_BASE_URL", "")
	}
	if backendURL == "" {
		backendURL = "http://localhost:8080/api" // Fallback для локальной разработки
	}

	return &Config{
		BackendURL:        backendURL,
		ServerPort:        getEnv("PORT", "8090"),
		Environment:       getEnv("ENV", "development"),
		PlanPollSeconds:   getEnvInt("PLAN_POLL_SECONDS", 5),
		SimulationDelayMs: getEnvInt("SIMULATION_DELAY_MS", 1500),
		HTTPTimeoutSecs:   getEnvInt("HTTP_TIMEOUT_SECONDS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
