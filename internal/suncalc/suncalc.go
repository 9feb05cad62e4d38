// Package suncalc computes daylight information for the results page.
package suncalc

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// Daylight holds the sun event times in the calculator's time zone
type Daylight struct {
	CivilDawn time.Time
	Sunrise   time.Time
	Sunset    time.Time
	CivilDusk time.Time
	DayLength time.Duration // sunset minus sunrise
}

// cacheKey identifies one calculation; coordinates are rounded to about 10 m
type cacheKey struct {
	lat, lon int64
	date     string
}

// Observer receives calculation outcomes; implemented by the metrics package.
type Observer interface {
	RecordDaylight(outcome string, duration time.Duration)
}

// SunCalc calculates and caches daylight for coordinate and date pairs.
// Safe for concurrent use.
type SunCalc struct {
	cache    map[cacheKey]Daylight
	lock     sync.RWMutex
	location *time.Location
	observer Observer
}

// NewSunCalc creates a calculator reporting times in loc. A nil loc means
// time.Local.
func NewSunCalc(loc *time.Location) *SunCalc {
	if loc == nil {
		loc = time.Local
	}
	return &SunCalc{
		cache:    make(map[cacheKey]Daylight),
		location: loc,
	}
}

// SetObserver registers an outcome observer
func (sc *SunCalc) SetObserver(o Observer) {
	sc.lock.Lock()
	sc.observer = o
	sc.lock.Unlock()
}

// Daylight returns the sun event times at the given coordinates on date.
// It fails where the sun does not rise or set that day (polar day or night).
func (sc *SunCalc) Daylight(latitude, longitude float64, date time.Time) (Daylight, error) {
	date = date.In(sc.location)
	key := cacheKey{
		lat:  int64(latitude * 1e4),
		lon:  int64(longitude * 1e4),
		date: date.Format(time.DateOnly),
	}

	sc.lock.RLock()
	cached, exists := sc.cache[key]
	obs := sc.observer
	sc.lock.RUnlock()

	if exists {
		if obs != nil {
			obs.RecordDaylight("cache_hit", 0)
		}
		return cached, nil
	}

	start := time.Now()
	daylight, err := sc.calculate(astral.Observer{Latitude: latitude, Longitude: longitude}, date)
	if obs != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		obs.RecordDaylight(outcome, time.Since(start))
	}
	if err != nil {
		return Daylight{}, err
	}

	sc.lock.Lock()
	sc.cache[key] = daylight
	sc.lock.Unlock()

	return daylight, nil
}

func (sc *SunCalc) calculate(observer astral.Observer, date time.Time) (Daylight, error) {
	civilDawn, err := astral.Dawn(observer, date, astral.DepressionCivil)
	if err != nil {
		return Daylight{}, fmt.Errorf("failed to calculate civil dawn: %w", err)
	}

	sunrise, err := astral.Sunrise(observer, date)
	if err != nil {
		return Daylight{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}

	sunset, err := astral.Sunset(observer, date)
	if err != nil {
		return Daylight{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}

	civilDusk, err := astral.Dusk(observer, date, astral.DepressionCivil)
	if err != nil {
		return Daylight{}, fmt.Errorf("failed to calculate civil dusk: %w", err)
	}

	return Daylight{
		CivilDawn: civilDawn.In(sc.location),
		Sunrise:   sunrise.In(sc.location),
		Sunset:    sunset.In(sc.location),
		CivilDusk: civilDusk.In(sc.location),
		DayLength: sunset.Sub(sunrise),
	}, nil
}
