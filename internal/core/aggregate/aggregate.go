// Package aggregate turns the raw attendance log into the shapes the API
// serves. Everything here is a pure function over already-fetched data; no
// I/O, no retained state between calls.
package aggregate

import (
	"sort"
	"time"

	"zkbridge.service/internal/ports/device"
)

// UnknownUserName is reported when a record's deviceUserId has no matching
// entry in the terminal's user table.
const UnknownUserName = "Unknown"

const (
	isoMillisLayout = "2006-01-02T15:04:05.000Z07:00"
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04:05"
)

// Range bounds a record filter. Either side may be nil (unbounded).
type Range struct {
	From *time.Time
	To   *time.Time
}

// DailySummary is one user's attendance for one calendar date: the earliest
// punch as check-in and the latest as check-out. Derived on every request
// from live device data, never stored.
type DailySummary struct {
	UserSN       int       `json:"userSn"`
	DeviceUserID string    `json:"deviceUserId"`
	Username     string    `json:"username"`
	Date         string    `json:"date"`
	CheckIn      time.Time `json:"-"`
	CheckOut     time.Time `json:"-"`
}

// Stats summarises a filtered record set for the summary endpoint.
type Stats struct {
	TotalAttendances int         `json:"totalAttendances"`
	UniqueUsers      int         `json:"uniqueUsers"`
	ByDate           []DateCount `json:"attendancesByDate"`
}

// DateCount is the punch count for one calendar date.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FilterByRange keeps records strictly inside the bounds. A record whose
// timestamp equals From or To is excluded. The exclusive comparison on both
// ends is intentional: it reproduces the behaviour downstream consumers
// already depend on, even though inclusive bounds would be the more common
// choice.
func FilterByRange(records []device.RawAttendanceRecord, r Range) []device.RawAttendanceRecord {
	if r.From == nil && r.To == nil {
		return records
	}

	out := make([]device.RawAttendanceRecord, 0, len(records))
	for _, rec := range records {
		if r.From != nil && !rec.RecordTime.After(*r.From) {
			continue
		}
		if r.To != nil && !rec.RecordTime.Before(*r.To) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// BuildUserIndex maps deviceUserId to display name. The terminal is not
// expected to repeat ids, but duplicates are not rejected: the later
// occurrence wins.
func BuildUserIndex(users []device.RawUser) map[string]string {
	index := make(map[string]string, len(users))
	for _, u := range users {
		index[u.DeviceUserID] = u.Name
	}
	return index
}

// ResolveName looks up a display name, falling back to UnknownUserName.
func ResolveName(index map[string]string, deviceUserID string) string {
	if name, ok := index[deviceUserID]; ok {
		return name
	}
	return UnknownUserName
}

type dayKey struct {
	deviceUserID string
	date         string
}

// Summarize groups records by (deviceUserId, UTC calendar date) and derives
// one DailySummary per group: earliest punch as check-in, latest as
// check-out. A single-record group has check-in equal to check-out. The
// result is sorted by date then deviceUserId; map iteration order never
// leaks into the output.
func Summarize(records []device.RawAttendanceRecord, index map[string]string) []DailySummary {
	groups := make(map[dayKey]*DailySummary)
	for _, rec := range records {
		key := dayKey{
			deviceUserID: rec.DeviceUserID,
			date:         rec.RecordTime.UTC().Format(dateLayout),
		}

		summary, ok := groups[key]
		if !ok {
			groups[key] = &DailySummary{
				UserSN:       rec.UserSN,
				DeviceUserID: rec.DeviceUserID,
				Username:     ResolveName(index, rec.DeviceUserID),
				Date:         key.date,
				CheckIn:      rec.RecordTime,
				CheckOut:     rec.RecordTime,
			}
			continue
		}
		if rec.RecordTime.Before(summary.CheckIn) {
			summary.CheckIn = rec.RecordTime
		}
		if rec.RecordTime.After(summary.CheckOut) {
			summary.CheckOut = rec.RecordTime
		}
	}

	out := make([]DailySummary, 0, len(groups))
	for _, summary := range groups {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].DeviceUserID < out[j].DeviceUserID
	})
	return out
}

// ComputeStats computes the counters served by the summary endpoint. ByDate
// is sorted by date ascending.
func ComputeStats(records []device.RawAttendanceRecord) Stats {
	users := make(map[string]struct{})
	byDate := make(map[string]int)
	for _, rec := range records {
		users[rec.DeviceUserID] = struct{}{}
		byDate[rec.RecordTime.UTC().Format(dateLayout)]++
	}

	counts := make([]DateCount, 0, len(byDate))
	for date, count := range byDate {
		counts = append(counts, DateCount{Date: date, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Date < counts[j].Date })

	return Stats{
		TotalAttendances: len(records),
		UniqueUsers:      len(users),
		ByDate:           counts,
	}
}

// FormatInstant renders a timestamp for the API. With a timezone name it
// renders the local time of day (HH:mm:ss) in that zone; without one it
// renders the full ISO-8601 UTC instant with milliseconds. Both shapes are
// relied on by existing consumers.
func FormatInstant(t time.Time, timezone string) (string, error) {
	if timezone == "" {
		return t.UTC().Format(isoMillisLayout), nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(timeOfDayLayout), nil
}
