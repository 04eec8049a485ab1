package ledger

import (
	"cloud.google.com/go/civil"

	"github.com/mvalderas/lendbook/pkg/models"
)

// ElapsedPeriods returns the number of whole billing periods between start
// and asOf for the given frequency. Dates before start count as zero
// periods; unknown frequencies count as zero.
//
// Monthly periods are calendar months, not 30-day blocks: a period elapses
// when the start's day-of-month comes around again. A loan started on the
// 31st therefore does not complete its first period in a shorter month
// until that month ends.
func ElapsedPeriods(start, asOf civil.Date, freq models.Frequency) int {
	switch freq {
	case models.FrequencyDaily:
		return clampDays(start, asOf)
	case models.FrequencyWeekly:
		return clampDays(start, asOf) / 7
	case models.FrequencyMonthly:
		months := (asOf.Year*12 + int(asOf.Month)) - (start.Year*12 + int(start.Month))
		if asOf.Day < start.Day {
			months-- // current month not yet fully elapsed
		}
		if months < 0 {
			return 0
		}
		return months
	}
	return 0
}

func clampDays(start, asOf civil.Date) int {
	days := asOf.DaysSince(start)
	if days < 0 {
		return 0
	}
	return days
}
