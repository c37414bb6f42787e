package model

import "time"

// ================ Client config ================
type EngineConfig struct {
	Provider    string        `envconfig:"ENGINE_PROVIDER" default:"ollama"`
	// Model and BaseURL fall back to per-provider defaults when empty.
	Model       string        `envconfig:"ENGINE_MODEL"`
	APIKey      string        `envconfig:"ENGINE_API_KEY"`
	BaseURL     string        `envconfig:"ENGINE_BASE_URL"`
	MaxTokens   int           `envconfig:"ENGINE_MAX_TOKENS" default:"512"`
	Warmup      bool          `envconfig:"ENGINE_WARMUP" default:"true"`
	InitTimeout time.Duration `envconfig:"ENGINE_INIT_TIMEOUT" default:"2m"`
}

type OptimizerConfig struct {
	Temperature float32 `envconfig:"OPTIMIZER_TEMPERATURE" default:"0.1"`
}

type RouterClientConfig struct {
	URL string `envconfig:"ROUTER_URL" default:"http://127.0.0.1:5000/generate"`
	// Zero means no client-side deadline; the transport error path still fires.
	Timeout time.Duration `envconfig:"ROUTER_TIMEOUT" default:"0s"`
}

type SessionConfig struct {
	TTL         time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MetricsAddr string        `envconfig:"METRICS_ADDR"`
}

// ================ Routing service config ================
type ServerConfig struct {
	Addr            string        `envconfig:"SERVER_ADDR" default:"127.0.0.1:5000"`
	Model           string        `envconfig:"SERVER_MODEL" default:"gemini-2.5-flash"`
	VertexProject   string        `envconfig:"VERTEX_PROJECT"`
	GeminiAPIKey    string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL   string        `envconfig:"GEMINI_BASE_URL"`
	WeatherAPIKey   string        `envconfig:"OPENWEATHER_API_KEY"`
	WeatherBaseURL  string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
	WeatherCacheTTL time.Duration `envconfig:"WEATHER_CACHE_TTL" default:"10m"`
	WeatherRate     float64       `envconfig:"WEATHER_RATE_PER_SEC" default:"1"`
	WeatherBurst    int           `envconfig:"WEATHER_BURST" default:"2"`
	WaterPerDegree  float64       `envconfig:"WATER_PER_DEGREE_ML" default:"2.0"`
	ShutdownGrace   time.Duration `envconfig:"SERVER_SHUTDOWN_GRACE" default:"10s"`
}
