package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/hydrochat-core/server/internal/agent/model"
	errx "github.com/hydrochat-core/server/internal/core/error"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

const weatherTimeout = 5 * time.Second

// WeatherClient looks up current temperatures on OpenWeather. Lookups never
// fail: any problem yields DefaultTemperature flagged as defaulted.
type WeatherClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cache   redis.Cmdable // optional
	ttl     time.Duration
}

type WeatherOption func(*WeatherClient)

func WithWeatherHTTPClient(hc *http.Client) WeatherOption {
	return func(c *WeatherClient) { c.http = hc }
}

// WithWeatherCache stores readings in Redis for the configured TTL.
func WithWeatherCache(rdb redis.Cmdable) WeatherOption {
	return func(c *WeatherClient) { c.cache = rdb }
}

func NewWeatherClient(cfg model.ServerConfig, opts ...WeatherOption) *WeatherClient {
	limit := rate.Inf
	if cfg.WeatherRate > 0 {
		limit = rate.Limit(cfg.WeatherRate)
	}
	burst := cfg.WeatherBurst
	if burst < 1 {
		burst = 1
	}

	c := &WeatherClient{
		baseURL: cfg.WeatherBaseURL,
		apiKey:  cfg.WeatherAPIKey,
		http:    &http.Client{Timeout: weatherTimeout},
		limiter: rate.NewLimiter(limit, burst),
		ttl:     cfg.WeatherCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WeatherClient) Temperature(ctx context.Context, dc DataCenter) Reading {
	key := fmt.Sprintf("weather:%.4f,%.4f", dc.Lat, dc.Lon)
	if v, ok := c.cached(ctx, key); ok {
		return Reading{Celsius: v}
	}

	t, err := c.fetch(ctx, dc)
	if err != nil {
		logx.Warn().
			Err(errx.WrapWeather(err)).
			Str("site", dc.Name).
			Float64("default_celsius", DefaultTemperature).
			Msg("Weather lookup failed; using default temperature")
		return Reading{Celsius: DefaultTemperature, Defaulted: true}
	}

	c.store(ctx, key, t)
	return Reading{Celsius: t}
}

func (c *WeatherClient) cached(ctx context.Context, key string) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}
	v, err := c.cache.Get(ctx, key).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.Warn().Err(errx.WrapRedis(err)).Str("key", key).Msg("Weather cache read failed")
		}
		return 0, false
	}
	return v, true
}

func (c *WeatherClient) store(ctx context.Context, key string, celsius float64) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, strconv.FormatFloat(celsius, 'f', -1, 64), c.ttl).Err(); err != nil {
		logx.Warn().Err(errx.WrapRedis(err)).Str("key", key).Msg("Weather cache write failed")
	}
}

type weatherPayload struct {
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

func (c *WeatherClient) fetch(ctx context.Context, dc DataCenter) (float64, error) {
	if c.apiKey == "" {
		return 0, errors.New("no OpenWeather API key configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(dc.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(dc.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var p weatherPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&p); err != nil {
		return 0, fmt.Errorf("decode weather: %w", err)
	}
	if p.Main == nil || p.Main.Temp == nil {
		return 0, errors.New("weather payload has no main.temp")
	}
	return *p.Main.Temp, nil
}
