package features

import (
	"github.com/civicgrid/foresight/internal/domain/category"
	"github.com/civicgrid/foresight/internal/domain/schema"
)

// Canonical feature column names. The order in BuildSchema is the contract
// between training and inference; changing it invalidates every trained
// model.
const (
	ColLatitude           = "latitude"
	ColLongitude          = "longitude"
	ColDistanceFromCenter = "distance_from_center"
	ColYear               = "year"
	ColMonth              = "month"
	ColDayOfYear          = "day_of_year"
	ColDayOfWeek          = "day_of_week"
	ColIsWeekend          = "is_weekend"
	ColHour               = "hour"
	ColSeason             = "season"
	ColTimeOfDay          = "time_of_day"
	ColTemperature        = "temperature"
	ColPrecipitation      = "precipitation"
	ColHumidity           = "humidity"
	ColHeavyRain          = "heavy_rain"
	ColExtremeTemp        = "extreme_temp"
	ColRain3DayAvg        = "rain_3day_avg"
	ColPopulationDensity  = "population_density"
	ColInfrastructureAge  = "infrastructure_age"
	ColUrbanArea          = "urban_area"
	ColPriority           = "priority"
	ColIncomeLevel        = "income_level"
	ColResolutionTime     = "resolution_time"
	ColTotalIssues        = "total_issues"
	ColAvgResolutionTime  = "avg_resolution_time"
	ColTrendIncreasing    = "trend_increasing"

	indicatorPrefix = "cat_"
)

// IndicatorColumn returns the one-hot column name for a category.
func IndicatorColumn(c category.Category) string {
	return indicatorPrefix + c.String()
}

// BuildSchema constructs the canonical feature schema. Both the training
// pipeline and the inference adapter produce vectors against exactly this
// schema.
func BuildSchema() *schema.Schema {
	cols := []schema.Column{
		{Name: ColLatitude, Kind: schema.Numeric},
		{Name: ColLongitude, Kind: schema.Numeric},
		{Name: ColDistanceFromCenter, Kind: schema.Numeric},
		{Name: ColYear, Kind: schema.Numeric},
		{Name: ColMonth, Kind: schema.Numeric},
		{Name: ColDayOfYear, Kind: schema.Numeric},
		{Name: ColDayOfWeek, Kind: schema.Numeric},
		{Name: ColIsWeekend, Kind: schema.Flag},
		{Name: ColHour, Kind: schema.Numeric},
		{Name: ColSeason, Kind: schema.Encoded},
		{Name: ColTimeOfDay, Kind: schema.Encoded},
		{Name: ColTemperature, Kind: schema.Numeric},
		{Name: ColPrecipitation, Kind: schema.Numeric},
		{Name: ColHumidity, Kind: schema.Numeric},
		{Name: ColHeavyRain, Kind: schema.Flag},
		{Name: ColExtremeTemp, Kind: schema.Flag},
		{Name: ColRain3DayAvg, Kind: schema.Numeric},
		{Name: ColPopulationDensity, Kind: schema.Numeric},
		{Name: ColInfrastructureAge, Kind: schema.Numeric},
		{Name: ColUrbanArea, Kind: schema.Flag},
		{Name: ColPriority, Kind: schema.Encoded},
		{Name: ColIncomeLevel, Kind: schema.Encoded},
		{Name: ColResolutionTime, Kind: schema.Numeric},
		{Name: ColTotalIssues, Kind: schema.Numeric},
		{Name: ColAvgResolutionTime, Kind: schema.Numeric},
		{Name: ColTrendIncreasing, Kind: schema.Flag},
	}
	for _, c := range category.All() {
		cols = append(cols, schema.Column{Name: IndicatorColumn(c), Kind: schema.Indicator})
	}
	return schema.New(cols...)
}
