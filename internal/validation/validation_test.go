package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/forecast-averages-service/internal/models"
)

func validEntry(dtTxt string) models.ForecastEntry {
	return models.ForecastEntry{
		Dt: models.Ptr(int64(1724673600)),
		Main: &models.MainMetrics{
			Temp:      models.Ptr(25.0),
			FeelsLike: models.Ptr(25.5),
			TempMin:   models.Ptr(24.0),
			TempMax:   models.Ptr(26.0),
			Pressure:  models.Ptr(1013),
			SeaLevel:  models.Ptr(1013),
			GrndLevel: models.Ptr(1001),
			Humidity:  models.Ptr(60),
			TempKf:    models.Ptr(0.0),
		},
		Weather: []models.WeatherCondition{{
			ID:          models.Ptr(800),
			Main:        models.Ptr("Clear"),
			Description: models.Ptr("clear sky"),
			Icon:        models.Ptr("01d"),
		}},
		Clouds:     &models.Clouds{All: models.Ptr(0)},
		Wind:       &models.Wind{Speed: models.Ptr(3.2), Deg: models.Ptr(180), Gust: models.Ptr(4.1)},
		Visibility: models.Ptr(10000),
		Pop:        models.Ptr(0.0),
		Sys:        &models.Sys{Pod: models.Ptr("d")},
		DtTxt:      dtTxt,
	}
}

func TestEntries_Valid(t *testing.T) {
	assert.NoError(t, Entries([]models.ForecastEntry{validEntry("2024-08-26 12:00:00")}))
}

func TestEntries_ZeroValuesArePresent(t *testing.T) {
	entry := validEntry("2024-08-26 12:00:00")
	*entry.Main.Temp = 0
	*entry.Visibility = 0
	*entry.Weather[0].Main = ""
	assert.NoError(t, Entries([]models.ForecastEntry{entry}))
}

func TestEnvelope_EmptyListIsValid(t *testing.T) {
	assert.NoError(t, Envelope(&models.AveragesRequest{List: []models.ForecastEntry{}}, 10))
}

func TestEnvelope_MissingList(t *testing.T) {
	err := Envelope(&models.AveragesRequest{}, 10)

	var verr *Error
	require.True(t, errors.As(err, &verr), "error = %v, want *Error", err)
	assert.Equal(t, []string{"list"}, verr.Fields())
}

func TestEnvelope_NilRequest(t *testing.T) {
	var verr *Error
	require.True(t, errors.As(Envelope(nil, 0), &verr))
	assert.Equal(t, []string{"body"}, verr.Fields())
}

func TestEntries_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *models.ForecastEntry)
		field  string
	}{
		{"main", func(e *models.ForecastEntry) { e.Main = nil }, "list[0].main"},
		{"weather", func(e *models.ForecastEntry) { e.Weather = nil }, "list[0].weather"},
		{"clouds", func(e *models.ForecastEntry) { e.Clouds = nil }, "list[0].clouds"},
		{"wind", func(e *models.ForecastEntry) { e.Wind = nil }, "list[0].wind"},
		{"sys", func(e *models.ForecastEntry) { e.Sys = nil }, "list[0].sys"},
		{"dt_txt", func(e *models.ForecastEntry) { e.DtTxt = "" }, "list[0].dt_txt"},
		{"dt", func(e *models.ForecastEntry) { e.Dt = nil }, "list[0].dt"},
		{"visibility", func(e *models.ForecastEntry) { e.Visibility = nil }, "list[0].visibility"},
		{"pop", func(e *models.ForecastEntry) { e.Pop = nil }, "list[0].pop"},
		{"main.temp", func(e *models.ForecastEntry) { e.Main.Temp = nil }, "list[0].main.temp"},
		{"main.humidity", func(e *models.ForecastEntry) { e.Main.Humidity = nil }, "list[0].main.humidity"},
		{"main.temp_kf", func(e *models.ForecastEntry) { e.Main.TempKf = nil }, "list[0].main.temp_kf"},
		{"wind.speed", func(e *models.ForecastEntry) { e.Wind.Speed = nil }, "list[0].wind.speed"},
		{"wind.gust", func(e *models.ForecastEntry) { e.Wind.Gust = nil }, "list[0].wind.gust"},
		{"clouds.all", func(e *models.ForecastEntry) { e.Clouds.All = nil }, "list[0].clouds.all"},
		{"sys.pod", func(e *models.ForecastEntry) { e.Sys.Pod = nil }, "list[0].sys.pod"},
		{"weather.main", func(e *models.ForecastEntry) { e.Weather[0].Main = nil }, "list[0].weather[0].main"},
		{"weather.icon", func(e *models.ForecastEntry) { e.Weather[0].Icon = nil }, "list[0].weather[0].icon"},
		{"weather.id", func(e *models.ForecastEntry) { e.Weather[0].ID = nil }, "list[0].weather[0].id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry := validEntry("2024-08-26 12:00:00")
			tc.mutate(&entry)

			err := Entries([]models.ForecastEntry{entry})

			var verr *Error
			require.True(t, errors.As(err, &verr), "error = %v, want *Error", err)
			assert.Equal(t, []string{tc.field}, verr.Fields())
			assert.Equal(t, "field required", verr.Violations[0].Message)
		})
	}
}

func TestEntries_MalformedTimestamp(t *testing.T) {
	tests := []string{
		"2024-08-26",
		"2024/08/26 12:00:00",
		"2024-08-26T12:00:00",
		"2024-13-26 12:00:00",
		"not a date",
	}
	for _, dtTxt := range tests {
		t.Run(dtTxt, func(t *testing.T) {
			err := Entries([]models.ForecastEntry{
				validEntry("2024-08-26 00:00:00"),
				validEntry(dtTxt),
			})

			var verr *Error
			require.True(t, errors.As(err, &verr), "error = %v, want *Error", err)
			assert.Equal(t, []string{"list[1].dt_txt"}, verr.Fields())
			assert.Equal(t, "must match YYYY-MM-DD HH:MM:SS", verr.Violations[0].Message)
		})
	}
}

func TestEntries_EmptyWeatherListIsSchemaValid(t *testing.T) {
	entry := validEntry("2024-08-26 12:00:00")
	entry.Weather = []models.WeatherCondition{}
	assert.NoError(t, Entries([]models.ForecastEntry{entry}))
}

func TestEntries_UnknownPeriodIsSchemaValid(t *testing.T) {
	entry := validEntry("2024-08-26 12:00:00")
	entry.Sys.Pod = models.Ptr("x")
	assert.NoError(t, Entries([]models.ForecastEntry{entry}))
}

func TestEnvelope_MaxEntries(t *testing.T) {
	req := &models.AveragesRequest{List: []models.ForecastEntry{
		validEntry("2024-08-26 00:00:00"),
		validEntry("2024-08-26 03:00:00"),
		validEntry("2024-08-26 06:00:00"),
	}}

	err := Envelope(req, 2)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"list"}, verr.Fields())
	assert.NoError(t, Envelope(req, 3))
	assert.NoError(t, Envelope(req, 0))
}

func TestEntries_NilIsValid(t *testing.T) {
	assert.NoError(t, Entries(nil))
}

func TestError_Message(t *testing.T) {
	err := &Error{Violations: []Violation{
		{Field: "list[0].main", Message: "field required"},
		{Field: "list[2].dt_txt", Message: "must match YYYY-MM-DD HH:MM:SS"},
	}}
	assert.Equal(t, "validation failed: list[0].main: field required; list[2].dt_txt: must match YYYY-MM-DD HH:MM:SS", err.Error())
}

func TestFromDecodeError(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"wrong type", `{"list": [{"main": {"temp": "hot"}}]}`, "list.main.temp"},
		{"list not array", `{"list": 5}`, "list"},
		{"syntax", `{"list": [`, "body"},
		{"empty", ``, "body"},
		{"garbage", `}{`, "body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req models.AveragesRequest
			err := json.NewDecoder(strings.NewReader(tc.body)).Decode(&req)
			require.Error(t, err)

			verr := FromDecodeError(err)
			assert.Equal(t, []string{tc.field}, verr.Fields())
		})
	}
}

func TestFromDecodeError_BodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"list": []}`))
	body := http.MaxBytesReader(w, r.Body, 4)

	var req models.AveragesRequest
	err := json.NewDecoder(body).Decode(&req)
	require.Error(t, err)

	verr := FromDecodeError(err)
	assert.Equal(t, []string{"body"}, verr.Fields())
	assert.Contains(t, verr.Violations[0].Message, "exceeds 4 bytes")
}

func TestEnvelope_SkipsEntries(t *testing.T) {
	entry := validEntry("not a timestamp")
	assert.NoError(t, Envelope(&models.AveragesRequest{List: []models.ForecastEntry{entry}}, 10))
	assert.Error(t, Entries([]models.ForecastEntry{entry}))
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"list": []}` + "\n"))
	require.NoError(t, err)
	assert.NotNil(t, req.List)
	assert.Empty(t, req.List)
}

func TestDecodeRequest_TrailingData(t *testing.T) {
	tests := []string{
		`{"list": []} garbage`,
		`{"list": []}}`,
		`{"list": []} {"list": []}`,
	}
	for _, body := range tests {
		t.Run(body, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(body))

			var verr *Error
			require.True(t, errors.As(err, &verr), "error = %v, want *Error", err)
			assert.Equal(t, []string{"body"}, verr.Fields())
		})
	}
}
