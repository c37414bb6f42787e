package router

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hydrochat-core/server/internal/agent/model"
	errx "github.com/hydrochat-core/server/internal/core/error"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

const (
	FallbackName  = "Global Default (Fallback)"
	FallbackLogic = "Standard Route (green route failed)"
)

// GenerateResponse is the /generate reply body.
type GenerateResponse struct {
	Response     string  `json:"response"`
	RoutedTo     string  `json:"routed_to"`
	WeatherLogic string  `json:"weather_logic"`
	WaterSavedML float64 `json:"water_saved_ml"`
	IsEstimate   bool    `json:"is_estimate"`
}

// Thermometer reports a site's current temperature.
type Thermometer interface {
	Temperature(ctx context.Context, dc DataCenter) Reading
}

type Service struct {
	weather   Thermometer
	gen       Generator
	perDegree float64
	metrics   *serviceMetrics
}

type serviceMetrics struct {
	requests    *prometheus.CounterVec
	temperature *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

func newServiceMetrics(reg prometheus.Registerer) *serviceMetrics {
	f := promauto.With(reg)
	return &serviceMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hydrochat_router_requests_total",
			Help: "Generation requests by route taken (green, fallback, failed)",
		}, []string{"route"}),
		temperature: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hydrochat_router_site_temperature_celsius",
			Help: "Last temperature used for each data center",
		}, []string{"site"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hydrochat_router_generation_seconds",
			Help:    "Generation latency by backend",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
	}
}

// NewService wires the routing decision to a generator. A nil registerer
// disables metrics.
func NewService(weather Thermometer, gen Generator, cfg model.ServerConfig, reg prometheus.Registerer) *Service {
	s := &Service{weather: weather, gen: gen, perDegree: cfg.WaterPerDegree}
	if reg != nil {
		s.metrics = newServiceMetrics(reg)
	}
	return s
}

// Route answers the prompt from the colder data center, falling back to the
// global backend when the regional call fails. It errors only when both fail.
func (s *Service) Route(ctx context.Context, prompt string) (*GenerateResponse, error) {
	montreal, eemshaven := s.temperatures(ctx)
	d := Decide(montreal, eemshaven, s.perDegree)

	logx.Info().
		Str("target", d.Target.Name).
		Str("region", d.Target.Region).
		Str("logic", d.Logic).
		Msg("Routing decision")

	started := time.Now()
	text, err := s.gen.GenerateRegional(ctx, d.Target.Region, prompt)
	s.observe("regional", started)
	if err == nil {
		s.count("green")
		return &GenerateResponse{
			Response:     text,
			RoutedTo:     d.Target.Name,
			WeatherLogic: d.Logic,
			WaterSavedML: d.WaterSavedML,
			IsEstimate:   d.IsEstimate,
		}, nil
	}
	logx.Warn().Err(err).Str("region", d.Target.Region).Msg("Green route failed; switching to global fallback")

	started = time.Now()
	text, fbErr := s.gen.GenerateGlobal(ctx, prompt)
	s.observe("global", started)
	if fbErr != nil {
		s.count("failed")
		logx.Error().Err(fbErr).Msg("Global fallback failed")
		return nil, errx.WrapGeneration(fbErr)
	}

	s.count("fallback")
	return &GenerateResponse{
		Response:     text,
		RoutedTo:     FallbackName,
		WeatherLogic: FallbackLogic,
	}, nil
}

func (s *Service) temperatures(ctx context.Context) (montreal, eemshaven Reading) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		montreal = s.weather.Temperature(ctx, Montreal)
	}()
	go func() {
		defer wg.Done()
		eemshaven = s.weather.Temperature(ctx, Eemshaven)
	}()
	wg.Wait()

	if s.metrics != nil {
		s.metrics.temperature.WithLabelValues(Montreal.Short).Set(montreal.Celsius)
		s.metrics.temperature.WithLabelValues(Eemshaven.Short).Set(eemshaven.Celsius)
	}
	return montreal, eemshaven
}

func (s *Service) count(route string) {
	if s.metrics != nil {
		s.metrics.requests.WithLabelValues(route).Inc()
	}
}

func (s *Service) observe(backend string, started time.Time) {
	if s.metrics != nil {
		s.metrics.latency.WithLabelValues(backend).Observe(time.Since(started).Seconds())
	}
}
