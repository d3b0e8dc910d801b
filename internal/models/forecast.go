package models

// MainMetrics holds the temperature, pressure and humidity block of a forecast entry.
// Every field is required; pointers distinguish an absent key from zero.
type MainMetrics struct {
	Temp      *float64 `json:"temp" validate:"required"`
	FeelsLike *float64 `json:"feels_like" validate:"required"`
	TempMin   *float64 `json:"temp_min" validate:"required"`
	TempMax   *float64 `json:"temp_max" validate:"required"`
	Pressure  *int     `json:"pressure" validate:"required"`
	SeaLevel  *int     `json:"sea_level" validate:"required"`
	GrndLevel *int     `json:"grnd_level" validate:"required"`
	Humidity  *int     `json:"humidity" validate:"required"`
	TempKf    *float64 `json:"temp_kf" validate:"required"`
}

// WeatherCondition is one condition label. Only the first element of ForecastEntry.Weather is used.
type WeatherCondition struct {
	ID          *int    `json:"id" validate:"required"`
	Main        *string `json:"main" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Icon        *string `json:"icon" validate:"required"`
}

type Clouds struct {
	All *int `json:"all" validate:"required"`
}

type Wind struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *int     `json:"deg" validate:"required"`
	Gust  *float64 `json:"gust" validate:"required"`
}

// Sys carries the period-of-day flag: "d" for day, "n" for night.
type Sys struct {
	Pod *string `json:"pod" validate:"required"`
}

// Period-of-day flags.
const (
	PeriodDay   = "d"
	PeriodNight = "n"
)

// ForecastEntry is one 3-hour forecast sample. All fields except Rain are
// required; a missing key is reported as a required-field violation.
type ForecastEntry struct {
	Dt         *int64             `json:"dt" validate:"required"`
	Main       *MainMetrics       `json:"main" validate:"required"`
	Weather    []WeatherCondition `json:"weather" validate:"required,dive"`
	Clouds     *Clouds            `json:"clouds" validate:"required"`
	Wind       *Wind              `json:"wind" validate:"required"`
	Visibility *int               `json:"visibility" validate:"required"`
	Pop        *float64           `json:"pop" validate:"required"`
	Rain       map[string]float64 `json:"rain,omitempty"`
	Sys        *Sys               `json:"sys" validate:"required"`
	DtTxt      string             `json:"dt_txt" validate:"required,datetime=2006-01-02 15:04:05"`
}

// Ptr returns a pointer to v. It is used to build entries in code.
func Ptr[T any](v T) *T {
	return &v
}

// DayNightAverages summarizes one period (day or night) of a single date.
type DayNightAverages struct {
	Temp        float64 `json:"temp"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Visibility  float64 `json:"visibility"`
	WeatherMain string  `json:"weather_main"`
	WeatherIcon string  `json:"weather_icon"`
}

// DailyForecastSummary is the per-date output record.
type DailyForecastSummary struct {
	Date          string           `json:"date"`
	DayAverages   DayNightAverages `json:"day_averages"`
	NightAverages DayNightAverages `json:"night_averages"`
}

// AveragesRequest is the body of POST /weather/averages.
type AveragesRequest struct {
	List []ForecastEntry `json:"list" validate:"required,dive"`
}

// AveragesResponse is the 200 response of POST /weather/averages.
type AveragesResponse struct {
	Forecasts []DailyForecastSummary `json:"forecasts"`
}
