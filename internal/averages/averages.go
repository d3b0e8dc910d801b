// Package averages groups forecast entries by calendar date and computes
// day/night means for each date.
package averages

import (
	"strconv"
	"time"

	"github.com/kjstillabower/forecast-averages-service/internal/models"
	"github.com/kjstillabower/forecast-averages-service/internal/validation"
)

const (
	dateLayout  = "2006-01-02"
	labelLayout = "Jan 02"

	// LabelToday and LabelTomorrow replace the "Mon DD" label for the current and next local date.
	LabelToday    = "Today"
	LabelTomorrow = "Tomorrow"
)

// indexedEntry keeps the input position so violations can name list[i].
type indexedEntry struct {
	index int
	entry *models.ForecastEntry
}

type dateGroup struct {
	date  string
	first int
	day   []indexedEntry
	night []indexedEntry
}

// Summarize returns one summary per distinct date of entries, in the order
// dates first appear. now supplies the local date used for Today/Tomorrow labels.
// Schema violations are returned as *validation.Error.
func Summarize(entries []models.ForecastEntry, now time.Time) ([]models.DailyForecastSummary, error) {
	if err := validation.Entries(entries); err != nil {
		return nil, err
	}

	groups := groupByDate(entries)
	out := make([]models.DailyForecastSummary, 0, len(groups))
	for _, g := range groups {
		day, err := average(g.day)
		if err != nil {
			return nil, err
		}
		night, err := average(g.night)
		if err != nil {
			return nil, err
		}
		label, err := DateLabel(g.date, now)
		if err != nil {
			return nil, validation.NewError("list["+strconv.Itoa(g.first)+"].dt_txt", "invalid calendar date")
		}
		out = append(out, models.DailyForecastSummary{
			Date:          label,
			DayAverages:   day,
			NightAverages: night,
		})
	}
	return out, nil
}

// groupByDate buckets entries by the date prefix of DtTxt, keeping first-seen order.
// Entries whose period is neither day nor night still open a date group but join no subset.
func groupByDate(entries []models.ForecastEntry) []*dateGroup {
	var order []*dateGroup
	index := make(map[string]*dateGroup)
	for i := range entries {
		e := &entries[i]
		key := e.DtTxt[:len(dateLayout)]
		g, ok := index[key]
		if !ok {
			g = &dateGroup{date: key, first: i}
			index[key] = g
			order = append(order, g)
		}
		switch *e.Sys.Pod {
		case models.PeriodDay:
			g.day = append(g.day, indexedEntry{index: i, entry: e})
		case models.PeriodNight:
			g.night = append(g.night, indexedEntry{index: i, entry: e})
		}
	}
	return order
}

// average returns the arithmetic means of a subset. The representative condition
// comes from the first entry and is not averaged. An empty subset yields the zero value.
func average(subset []indexedEntry) (models.DayNightAverages, error) {
	if len(subset) == 0 {
		return models.DayNightAverages{}, nil
	}
	first := subset[0]
	if len(first.entry.Weather) == 0 {
		return models.DayNightAverages{}, validation.NewError(
			"list["+strconv.Itoa(first.index)+"].weather",
			"at least one weather condition required",
		)
	}

	var temp, humidity, wind, visibility float64
	for _, ie := range subset {
		temp += *ie.entry.Main.Temp
		humidity += float64(*ie.entry.Main.Humidity)
		wind += *ie.entry.Wind.Speed
		visibility += float64(*ie.entry.Visibility)
	}
	n := float64(len(subset))
	return models.DayNightAverages{
		Temp:        temp / n,
		Humidity:    humidity / n,
		WindSpeed:   wind / n,
		Visibility:  visibility / n,
		WeatherMain: *first.entry.Weather[0].Main,
		WeatherIcon: *first.entry.Weather[0].Icon,
	}, nil
}

// DateLabel formats a YYYY-MM-DD date relative to now: "Today", "Tomorrow",
// or abbreviated month and zero-padded day ("Aug 26"). The date is
// interpreted in now's location.
func DateLabel(date string, now time.Time) (string, error) {
	d, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return "", err
	}
	today := truncateToDate(now)
	switch {
	case d.Equal(today):
		return LabelToday, nil
	case d.Equal(today.AddDate(0, 0, 1)):
		return LabelTomorrow, nil
	default:
		return d.Format(labelLayout), nil
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
