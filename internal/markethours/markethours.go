// Package markethours answers "is the market open" questions for the US
// regular equity session (9:30 AM – 4:00 PM Eastern, Mon–Fri, excluding
// NYSE holidays).
package markethours

import (
	"fmt"
	"time"
)

// NY is the exchange time zone. The tz database handles DST transitions.
var NY = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("markethours: load America/New_York: %v", err))
	}
	return loc
}()

// Regular session boundaries, Eastern time.
const (
	OpenHour    = 9
	OpenMinute  = 30
	CloseHour   = 16
	CloseMinute = 0

	// Pre-market warm-up timing for the live monitor.
	PreOpenMinutesBefore   = 5 // wake for broker login at 9:25
	WSConnectMinutesBefore = 1 // connect the bar stream at 9:29
)

// IsMarketOpen reports whether t falls within the regular session.
func IsMarketOpen(t time.Time) bool {
	et := t.In(NY)
	wd := et.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if IsHoliday(et) {
		return false
	}
	hm := et.Hour()*60 + et.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday reports whether t is Mon-Fri in exchange time.
func IsWeekday(t time.Time) bool {
	wd := t.In(NY).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay reports whether t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	et := t.In(NY)
	return IsWeekday(et) && !IsHoliday(et)
}

// NextOpen returns the next session open. If t is before today's open on a
// trading day, that open is returned.
func NextOpen(t time.Time) time.Time {
	et := t.In(NY)

	todayOpen := time.Date(et.Year(), et.Month(), et.Day(), OpenHour, OpenMinute, 0, 0, NY)
	if et.Before(todayOpen) && IsTradingDay(et) {
		return todayOpen
	}

	d := et.AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		if IsTradingDay(d) {
			return time.Date(d.Year(), d.Month(), d.Day(), OpenHour, OpenMinute, 0, 0, NY)
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(et.Year(), et.Month(), et.Day()+1, OpenHour, OpenMinute, 0, 0, NY)
}

// NextPreOpen is PreOpenMinutesBefore minutes ahead of the next open, used
// to start broker login before the bell.
func NextPreOpen(t time.Time) time.Time {
	return NextOpen(t).Add(-time.Duration(PreOpenMinutesBefore) * time.Minute)
}

// WSConnectTime is the stream connect time for a given open.
func WSConnectTime(openTime time.Time) time.Time {
	return openTime.Add(-time.Duration(WSConnectMinutesBefore) * time.Minute)
}

// TodayClose returns 4:00 PM Eastern on t's calendar day.
func TodayClose(t time.Time) time.Time {
	et := t.In(NY)
	return time.Date(et.Year(), et.Month(), et.Day(), CloseHour, CloseMinute, 0, 0, NY)
}

// TimeUntilClose returns the duration until today's close, 0 if passed.
func TimeUntilClose(t time.Time) time.Duration {
	d := TodayClose(t).Sub(t.In(NY))
	if d < 0 {
		return 0
	}
	return d
}

// TimeUntilOpen returns the duration until the next open.
func TimeUntilOpen(t time.Time) time.Duration {
	return NextOpen(t).Sub(t.In(NY))
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		return fmt.Sprintf("Market Open, closes in %s", fmtDur(TimeUntilClose(t)))
	}
	next := NextOpen(t)
	et := next.In(NY)
	return fmt.Sprintf("Market Closed, opens %s %s (%s)",
		et.Weekday().String()[:3], et.Format("15:04"), fmtDur(next.Sub(t)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
