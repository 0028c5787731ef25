package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/observation"
	"github.com/civicgrid/foresight/pkg/logger"
)

const connectTimeout = 5 * time.Second

// PostgresSource reads training data from the issue-tracking database.
type PostgresSource struct {
	db  *sqlx.DB
	log logger.Logger
}

// PostgresOption applies a configuration option to the PostgresSource.
type PostgresOption func(*PostgresSource)

// WithPostgresLogger sets a custom logger.
func WithPostgresLogger(log logger.Logger) PostgresOption {
	return func(s *PostgresSource) {
		if log != nil {
			s.log = log
		}
	}
}

// NewPostgresSource connects to the database and verifies the connection.
func NewPostgresSource(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresSource, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresSource{db: db, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error { return s.db.Close() }

type issueRow struct {
	ID             string    `db:"id"`
	CreatedAt      time.Time `db:"created_at"`
	Latitude       float64   `db:"latitude"`
	Longitude      float64   `db:"longitude"`
	Category       string    `db:"category"`
	Priority       string    `db:"priority"`
	Status         string    `db:"status"`
	ResolutionDays float64   `db:"resolution_days"`
	Upvotes        int       `db:"upvotes"`
	Confirmations  int       `db:"confirmations"`
}

const issuesQuery = `
SELECT id, created_at, latitude, longitude, category, priority, status,
       COALESCE(resolution_days, 0) AS resolution_days,
       upvotes, confirmations
FROM issues
ORDER BY created_at`

// Observations loads every issue record. Rows with labels outside the
// closed category or priority sets are skipped, not guessed.
func (s *PostgresSource) Observations(ctx context.Context) ([]observation.Observation, error) {
	var rows []issueRow
	if err := s.db.SelectContext(ctx, &rows, issuesQuery); err != nil {
		return nil, fmt.Errorf("%w: load issues: %v", ErrDataUnavailable, err)
	}

	obs := make([]observation.Observation, 0, len(rows))
	for _, r := range rows {
		cat, err := category.Parse(r.Category)
		if err != nil {
			s.log.Warn(ctx, "skipping issue with unknown category",
				logger.String("id", r.ID),
				logger.String("category", r.Category),
			)
			continue
		}
		prio, err := category.ParsePriority(r.Priority)
		if err != nil {
			s.log.Warn(ctx, "skipping issue with unknown priority",
				logger.String("id", r.ID),
				logger.String("priority", r.Priority),
			)
			continue
		}
		obs = append(obs, observation.Observation{
			ID:             r.ID,
			CreatedAt:      r.CreatedAt,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			Category:       cat,
			Priority:       prio,
			Status:         r.Status,
			ResolutionDays: r.ResolutionDays,
			Upvotes:        r.Upvotes,
			Confirmations:  r.Confirmations,
		})
	}
	return obs, nil
}

type weatherRow struct {
	Date          string  `db:"date"`
	Temperature   float64 `db:"temperature"`
	Precipitation float64 `db:"precipitation"`
	Humidity      float64 `db:"humidity"`
	WindSpeed     float64 `db:"wind_speed"`
	Pressure      float64 `db:"pressure"`
}

const weatherQuery = `
SELECT to_char(date, 'YYYY-MM-DD') AS date,
       temperature, precipitation, humidity, wind_speed, pressure
FROM daily_weather`

// WeatherByDate loads the daily weather records keyed by calendar day.
func (s *PostgresSource) WeatherByDate(ctx context.Context) (map[string]observation.Weather, error) {
	var rows []weatherRow
	if err := s.db.SelectContext(ctx, &rows, weatherQuery); err != nil {
		return nil, fmt.Errorf("%w: load weather: %v", ErrDataUnavailable, err)
	}
	out := make(map[string]observation.Weather, len(rows))
	for _, r := range rows {
		out[r.Date] = observation.Weather{
			Temperature:   r.Temperature,
			Precipitation: r.Precipitation,
			Humidity:      r.Humidity,
			WindSpeed:     r.WindSpeed,
			Pressure:      r.Pressure,
		}
	}
	return out, nil
}

type demographicsRow struct {
	LocationKey       string  `db:"location_key"`
	PopulationDensity float64 `db:"population_density"`
	InfrastructureAge float64 `db:"infrastructure_age"`
	IncomeTier        string  `db:"income_tier"`
	Urban             bool    `db:"urban"`
}

const demographicsQuery = `
SELECT location_key, population_density, infrastructure_age, income_tier, urban
FROM cell_demographics`

// DemographicsByCell loads the per-cell demographic attributes.
func (s *PostgresSource) DemographicsByCell(ctx context.Context) (map[string]observation.Demographics, error) {
	var rows []demographicsRow
	if err := s.db.SelectContext(ctx, &rows, demographicsQuery); err != nil {
		return nil, fmt.Errorf("%w: load demographics: %v", ErrDataUnavailable, err)
	}
	out := make(map[string]observation.Demographics, len(rows))
	for _, r := range rows {
		out[r.LocationKey] = observation.Demographics{
			PopulationDensity: r.PopulationDensity,
			InfrastructureAge: r.InfrastructureAge,
			IncomeTier:        r.IncomeTier,
			Urban:             r.Urban,
		}
	}
	return out, nil
}
