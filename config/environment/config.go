package environment

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func GetOpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// GetOpenAIModels returns the ranked model list the provider falls back
// through, strongest first.
func GetOpenAIModels() []string {
	raw := getEnv("OPENAI_MODELS", "gpt-4o,gpt-4o-mini,gpt-3.5-turbo")
	parts := strings.Split(raw, ",")
	models := make([]string, 0, len(parts))
	for _, p := range parts {
		if m := strings.TrimSpace(p); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func GetFirebaseKey() string {
	return os.Getenv("FIREBASE_CREDENTIALS_BASE64")
}

func GetFirebaseProjectID() string {
	return os.Getenv("FIREBASE_PROJECT_ID")
}

func GetPlacesAPIKey() string {
	return os.Getenv("GOOGLE_PLACES_API_KEY")
}

// GetReaderProxyURL returns the optional reader-proxy prefix. When empty the
// fetcher skips that transport entirely.
func GetReaderProxyURL() string {
	return os.Getenv("READER_PROXY_URL")
}

func GetFetchTimeout() time.Duration {
	return getEnvDuration("FETCH_TIMEOUT", 20*time.Second)
}

func GetAICallTimeout() time.Duration {
	return getEnvDuration("AI_CALL_TIMEOUT", 60*time.Second)
}

func GetRestaurantTimeout() time.Duration {
	return getEnvDuration("RESTAURANT_TIMEOUT", 180*time.Second)
}

func GetRenderWorkers() int {
	return getEnvInt("RENDER_WORKERS", 4)
}

func GetClassifyBatchSize() int {
	return getEnvInt("CLASSIFY_BATCH_SIZE", 25)
}

func GetClassifyFanOut() int {
	return getEnvInt("CLASSIFY_FAN_OUT", 3)
}

func GetClassifyGroupPause() time.Duration {
	return getEnvDuration("CLASSIFY_GROUP_PAUSE", 2*time.Second)
}
