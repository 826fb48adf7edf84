package datasource

import (
	"math/rand"
	"time"

	"weather-state/models"
)

// Temperature ranges used by Generate, inclusive
const (
	MinTempLow  = 0
	MinTempHigh = 8
	MaxTempLow  = 9
	MaxTempHigh = 20
)

// Generate builds n consecutive random forecast days starting at today.
// Conditions are uniform over the enum, min is drawn from [0,8], max from
// [9,20] and current from [min,max].
func Generate(today time.Time, n int, r *rand.Rand) []models.ForecastDay {
	conditions := models.Conditions()
	start := models.StartOfDay(today)

	days := make([]models.ForecastDay, 0, n)
	for i := 0; i < n; i++ {
		minTemp := between(r, MinTempLow, MinTempHigh)
		maxTemp := between(r, MaxTempLow, MaxTempHigh)

		days = append(days, models.ForecastDay{
			Date:        start.AddDate(0, 0, i),
			Condition:   conditions[r.Intn(len(conditions))],
			MinTemp:     minTemp,
			MaxTemp:     maxTemp,
			CurrentTemp: between(r, minTemp, maxTemp),
		})
	}
	return days
}

func between(r *rand.Rand, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}
