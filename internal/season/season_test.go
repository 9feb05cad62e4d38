package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestForBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		want Season
	}{
		{"Dec 20 is fall", date(2024, time.December, 20), Fall},
		{"Dec 21 is winter", date(2024, time.December, 21), Winter},
		{"Dec 31 is winter", date(2024, time.December, 31), Winter},
		{"Jan 1 is winter", date(2025, time.January, 1), Winter},
		{"Feb 29 is winter", date(2024, time.February, 29), Winter},
		{"Mar 20 is winter", date(2024, time.March, 20), Winter},
		{"Mar 21 is spring", date(2024, time.March, 21), Spring},
		{"Jun 20 is spring", date(2024, time.June, 20), Spring},
		{"Jun 21 is summer", date(2024, time.June, 21), Summer},
		{"Sep 22 is summer", date(2024, time.September, 22), Summer},
		{"Sep 23 is fall", date(2024, time.September, 23), Fall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, For(tt.date))
		})
	}
}

func TestForIsTotal(t *testing.T) {
	t.Parallel()

	for _, year := range []int{2023, 2024} { // non-leap and leap
		counts := map[Season]int{}
		for d := date(year, time.January, 1); d.Year() == year; d = d.AddDate(0, 0, 1) {
			s := For(d)
			require.NotEmpty(t, s, "no season for %s", d.Format(time.DateOnly))
			counts[s]++
		}

		assert.Equal(t, 92, counts[Spring], "year %d", year)
		assert.Equal(t, 94, counts[Summer], "year %d", year)
		assert.Equal(t, 89, counts[Fall], "year %d", year)

		days := 365
		if year == 2024 {
			days = 366
		}
		assert.Equal(t, days-92-94-89, counts[Winter], "year %d", year)
	}
}

func TestForIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 21, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 21, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, Spring, For(start))
	assert.Equal(t, Spring, For(end))
}

func TestParse(t *testing.T) {
	t.Parallel()

	for _, s := range []Season{Winter, Spring, Summer, Fall} {
		got, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := Parse("Monsoon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Monsoon")
}
