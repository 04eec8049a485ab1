package ledger

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mvalderas/lendbook/pkg/models"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestElapsedPeriods_Daily(t *testing.T) {
	start := date(2024, time.January, 1)

	cases := []struct {
		asOf civil.Date
		want int
	}{
		{date(2024, time.January, 1), 0},
		{date(2024, time.January, 2), 1},
		{date(2024, time.January, 11), 10},
		{date(2023, time.December, 25), 0}, // before start
		{date(2024, time.March, 1), 60},    // 2024 is a leap year
	}
	for _, c := range cases {
		got := ElapsedPeriods(start, c.asOf, models.FrequencyDaily)
		if got != c.want {
			t.Errorf("daily %s -> %s: expected %d periods, got %d", start, c.asOf, c.want, got)
		}
	}
}

func TestElapsedPeriods_Weekly(t *testing.T) {
	start := date(2024, time.January, 1)

	cases := []struct {
		asOf civil.Date
		want int
	}{
		{date(2024, time.January, 1), 0},
		{date(2024, time.January, 7), 0},  // six days, no full week
		{date(2024, time.January, 8), 1},  // exactly seven days
		{date(2024, time.January, 14), 1}, // thirteen days
		{date(2024, time.January, 15), 2},
		{date(2023, time.December, 1), 0},
	}
	for _, c := range cases {
		got := ElapsedPeriods(start, c.asOf, models.FrequencyWeekly)
		if got != c.want {
			t.Errorf("weekly %s -> %s: expected %d periods, got %d", start, c.asOf, c.want, got)
		}
	}
}

func TestElapsedPeriods_Monthly(t *testing.T) {
	cases := []struct {
		start civil.Date
		asOf  civil.Date
		want  int
	}{
		{date(2024, time.January, 15), date(2024, time.January, 15), 0},
		{date(2024, time.January, 15), date(2024, time.February, 14), 0}, // day not reached yet
		{date(2024, time.January, 15), date(2024, time.February, 15), 1},
		{date(2024, time.January, 15), date(2024, time.March, 20), 2},
		{date(2023, time.November, 10), date(2024, time.January, 10), 2}, // year boundary
		{date(2024, time.January, 15), date(2023, time.December, 20), 0}, // before start
	}
	for _, c := range cases {
		got := ElapsedPeriods(c.start, c.asOf, models.FrequencyMonthly)
		if got != c.want {
			t.Errorf("monthly %s -> %s: expected %d periods, got %d", c.start, c.asOf, c.want, got)
		}
	}
}

// Months are calendar months, so a loan started on the 31st does not finish
// its first period inside February at all; the decrement rule keeps the
// count at the shorter month's end.
func TestElapsedPeriods_MonthlyEndOfMonth(t *testing.T) {
	start := date(2024, time.January, 31)

	cases := []struct {
		asOf civil.Date
		want int
	}{
		{date(2024, time.February, 28), 0},
		{date(2024, time.February, 29), 0},
		{date(2024, time.March, 30), 1},
		{date(2024, time.March, 31), 2},
	}
	for _, c := range cases {
		got := ElapsedPeriods(start, c.asOf, models.FrequencyMonthly)
		if got != c.want {
			t.Errorf("monthly %s -> %s: expected %d periods, got %d", start, c.asOf, c.want, got)
		}
	}
}

func TestElapsedPeriods_UnknownFrequency(t *testing.T) {
	got := ElapsedPeriods(date(2024, time.January, 1), date(2024, time.June, 1), models.Frequency("yearly"))
	if got != 0 {
		t.Errorf("expected 0 periods for unknown frequency, got %d", got)
	}
}
