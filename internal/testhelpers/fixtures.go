// Package testhelpers builds forecast fixtures and an in-process server for
// end-to-end tests.
package testhelpers

import (
	"time"

	"github.com/kjstillabower/forecast-averages-service/internal/models"
	"github.com/kjstillabower/forecast-averages-service/internal/validation"
)

// ForecastStep is the sampling interval of the upstream 5-day forecast.
const ForecastStep = 3 * time.Hour

// ForecastEntries returns n entries spaced ForecastStep apart starting at start.
// Hours 06:00 through 18:00 are day ("d"); the rest are night ("n").
// Measurements are deterministic functions of the index so expected means can be derived.
func ForecastEntries(start time.Time, n int) []models.ForecastEntry {
	out := make([]models.ForecastEntry, 0, n)
	for i := 0; i < n; i++ {
		at := start.Add(time.Duration(i) * ForecastStep)
		out = append(out, Entry(at, PeriodAt(at), float64(10+i), 40+i%50, float64(i%7), 10000-i*10))
	}
	return out
}

// PeriodAt returns the period flag for a sample taken at t.
func PeriodAt(t time.Time) string {
	if h := t.Hour(); h >= 6 && h < 18 {
		return models.PeriodDay
	}
	return models.PeriodNight
}

// Entry builds a single schema-valid entry.
func Entry(at time.Time, pod string, temp float64, humidity int, wind float64, visibility int) models.ForecastEntry {
	condition := Condition(800, "Clear", "clear sky", "01"+pod)
	if humidity >= 80 {
		condition = Condition(500, "Rain", "light rain", "10"+pod)
	}
	return models.ForecastEntry{
		Dt: models.Ptr(at.Unix()),
		Main: &models.MainMetrics{
			Temp:      models.Ptr(temp),
			FeelsLike: models.Ptr(temp),
			TempMin:   models.Ptr(temp - 1),
			TempMax:   models.Ptr(temp + 1),
			Pressure:  models.Ptr(1013),
			SeaLevel:  models.Ptr(1013),
			GrndLevel: models.Ptr(1001),
			Humidity:  models.Ptr(humidity),
			TempKf:    models.Ptr(0.0),
		},
		Weather: []models.WeatherCondition{condition},
		Clouds:  &models.Clouds{All: models.Ptr(humidity / 2)},
		Wind: &models.Wind{
			Speed: models.Ptr(wind),
			Deg:   models.Ptr(200),
			Gust:  models.Ptr(wind * 1.5),
		},
		Visibility: models.Ptr(visibility),
		Pop:        models.Ptr(0.1),
		Sys:        &models.Sys{Pod: models.Ptr(pod)},
		DtTxt:      at.Format(validation.DateTimeLayout),
	}
}

// Condition builds a fully populated weather condition.
func Condition(id int, main, description, icon string) models.WeatherCondition {
	return models.WeatherCondition{
		ID:          models.Ptr(id),
		Main:        models.Ptr(main),
		Description: models.Ptr(description),
		Icon:        models.Ptr(icon),
	}
}
