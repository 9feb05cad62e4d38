package suncalc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) RecordDaylight(outcome string, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func TestNewSunCalcDefaultsToLocal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, time.Local, NewSunCalc(nil).location)
}

func TestDaylight_Midsummer(t *testing.T) {
	t.Parallel()
	sc := newTestSunCalc()

	d, err := sc.Daylight(testLatitude, testLongitude, midsummerDate())
	require.NoError(t, err)

	assert.True(t, d.CivilDawn.Before(d.Sunrise))
	assert.True(t, d.Sunrise.Before(d.Sunset))
	assert.True(t, d.Sunset.Before(d.CivilDusk))
	assert.Equal(t, time.UTC, d.Sunrise.Location())

	// Helsinki midsummer day is roughly 18h 55m
	assert.Greater(t, d.DayLength, 18*time.Hour)
	assert.Less(t, d.DayLength, 20*time.Hour)
}

func TestDaylight_Equator(t *testing.T) {
	t.Parallel()

	d, err := newTestSunCalc().Daylight(0, 0, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.InDelta(t, 12*time.Hour, d.DayLength, float64(15*time.Minute))
}

func TestDaylight_PolarNightFails(t *testing.T) {
	t.Parallel()

	// Svalbard in midwinter has no sunrise
	_, err := newTestSunCalc().Daylight(78.22, 15.65, time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC))
	require.Error(t, err)
}

func TestDaylight_Cache(t *testing.T) {
	t.Parallel()

	sc := newTestSunCalc()
	obs := &recordingObserver{}
	sc.SetObserver(obs)

	first, err := sc.Daylight(testLatitude, testLongitude, midsummerDate())
	require.NoError(t, err)

	// Same day, different time of day
	second, err := sc.Daylight(testLatitude, testLongitude, midsummerDate().Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, first.Sunrise.Equal(second.Sunrise))

	// Different place
	_, err = sc.Daylight(0, 0, midsummerDate())
	require.NoError(t, err)

	assert.Equal(t, []string{"success", "cache_hit", "success"}, obs.outcomes)
	sc.lock.RLock()
	assert.Len(t, sc.cache, 2)
	sc.lock.RUnlock()
}

func TestDaylight_Concurrent(t *testing.T) {
	t.Parallel()

	sc := newTestSunCalc()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Go(func() {
			_, err := sc.Daylight(testLatitude, testLongitude, midsummerDate().AddDate(0, 0, i%4))
			assert.NoError(t, err)
		})
	}
	wg.Wait()
}
