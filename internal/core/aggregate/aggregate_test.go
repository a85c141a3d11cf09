package aggregate

import (
	"reflect"
	"testing"
	"time"

	"zkbridge.service/internal/ports/device"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	return parsed
}

func record(t *testing.T, userID, at string) device.RawAttendanceRecord {
	t.Helper()
	return device.RawAttendanceRecord{
		UserSN:       1,
		DeviceUserID: userID,
		RecordTime:   ts(t, at),
		IP:           "192.168.1.201",
	}
}

func TestFilterByRangeExcludesExactBounds(t *testing.T) {
	from := ts(t, "2025-06-07T08:00:00Z")
	to := ts(t, "2025-06-07T18:00:00Z")

	records := []device.RawAttendanceRecord{
		record(t, "1", "2025-06-07T08:00:00Z"), // equal to from, excluded
		record(t, "1", "2025-06-07T08:00:01Z"),
		record(t, "1", "2025-06-07T12:00:00Z"),
		record(t, "1", "2025-06-07T18:00:00Z"), // equal to to, excluded
		record(t, "1", "2025-06-07T19:00:00Z"),
	}

	got := FilterByRange(records, Range{From: &from, To: &to})
	if len(got) != 2 {
		t.Fatalf("expected 2 records strictly inside the bounds, got %d", len(got))
	}
	for _, rec := range got {
		if !rec.RecordTime.After(from) || !rec.RecordTime.Before(to) {
			t.Fatalf("record %v escaped the exclusive bounds", rec.RecordTime)
		}
	}
}

func TestFilterByRangeOpenSides(t *testing.T) {
	from := ts(t, "2025-06-07T12:00:00Z")
	records := []device.RawAttendanceRecord{
		record(t, "1", "2025-06-07T11:00:00Z"),
		record(t, "1", "2025-06-07T12:00:00Z"),
		record(t, "1", "2025-06-07T13:00:00Z"),
	}

	onlyFrom := FilterByRange(records, Range{From: &from})
	if len(onlyFrom) != 1 || !onlyFrom[0].RecordTime.Equal(ts(t, "2025-06-07T13:00:00Z")) {
		t.Fatalf("from-only filter wrong: %v", onlyFrom)
	}

	onlyTo := FilterByRange(records, Range{To: &from})
	if len(onlyTo) != 1 || !onlyTo[0].RecordTime.Equal(ts(t, "2025-06-07T11:00:00Z")) {
		t.Fatalf("to-only filter wrong: %v", onlyTo)
	}

	unbounded := FilterByRange(records, Range{})
	if len(unbounded) != 3 {
		t.Fatalf("unbounded filter should keep everything, got %d", len(unbounded))
	}
}

func TestBuildUserIndexLastWriteWins(t *testing.T) {
	index := BuildUserIndex([]device.RawUser{
		{DeviceUserID: "5", Name: "First"},
		{DeviceUserID: "7", Name: "Other"},
		{DeviceUserID: "5", Name: "Second"},
	})

	if index["5"] != "Second" {
		t.Fatalf("expected later duplicate to win, got %q", index["5"])
	}
	if index["7"] != "Other" {
		t.Fatalf("unexpected name for user 7: %q", index["7"])
	}
}

func TestResolveNameUnknownUser(t *testing.T) {
	if got := ResolveName(map[string]string{}, "99"); got != UnknownUserName {
		t.Fatalf("expected %q for unmatched user, got %q", UnknownUserName, got)
	}
}

func TestSummarizeGroupsAndSorts(t *testing.T) {
	index := map[string]string{"5": "John Doe", "7": "Jane Roe"}
	records := []device.RawAttendanceRecord{
		// Deliberately unsorted; the device gives no ordering guarantee.
		record(t, "7", "2025-06-08T09:15:00Z"),
		record(t, "5", "2025-06-07T17:30:00Z"),
		record(t, "5", "2025-06-08T08:45:00Z"),
		record(t, "5", "2025-06-07T08:30:00Z"),
		record(t, "5", "2025-06-07T12:00:00Z"),
	}

	got := Summarize(records, index)
	if len(got) != 3 {
		t.Fatalf("expected one summary per (user, date) pair, got %d", len(got))
	}

	// Sorted by date then deviceUserId.
	if got[0].Date != "2025-06-07" || got[0].DeviceUserID != "5" {
		t.Fatalf("unexpected first summary: %+v", got[0])
	}
	if got[1].Date != "2025-06-08" || got[1].DeviceUserID != "5" {
		t.Fatalf("unexpected second summary: %+v", got[1])
	}
	if got[2].Date != "2025-06-08" || got[2].DeviceUserID != "7" {
		t.Fatalf("unexpected third summary: %+v", got[2])
	}

	// Earliest in, latest out; the midday punch is absorbed.
	if !got[0].CheckIn.Equal(ts(t, "2025-06-07T08:30:00Z")) {
		t.Fatalf("wrong check-in: %v", got[0].CheckIn)
	}
	if !got[0].CheckOut.Equal(ts(t, "2025-06-07T17:30:00Z")) {
		t.Fatalf("wrong check-out: %v", got[0].CheckOut)
	}
	if got[0].Username != "John Doe" {
		t.Fatalf("wrong username: %q", got[0].Username)
	}
}

func TestSummarizeSingleRecordGroup(t *testing.T) {
	got := Summarize([]device.RawAttendanceRecord{
		record(t, "5", "2025-06-07T10:21:02Z"),
	}, nil)

	if len(got) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(got))
	}
	if !got[0].CheckIn.Equal(got[0].CheckOut) {
		t.Fatalf("single punch must have checkIn == checkOut, got %v and %v", got[0].CheckIn, got[0].CheckOut)
	}
	if got[0].Username != UnknownUserName {
		t.Fatalf("expected unknown username fallback, got %q", got[0].Username)
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	if got := Summarize(nil, nil); len(got) != 0 {
		t.Fatalf("empty input must give empty output, got %v", got)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	records := []device.RawAttendanceRecord{
		record(t, "5", "2025-06-07T08:30:00Z"),
		record(t, "5", "2025-06-07T17:30:00Z"),
		record(t, "7", "2025-06-07T09:00:00Z"),
	}
	index := map[string]string{"5": "John Doe"}

	first := Summarize(records, index)
	second := Summarize(records, index)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("summarize accumulated state between calls:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestComputeStats(t *testing.T) {
	records := []device.RawAttendanceRecord{
		record(t, "5", "2025-06-07T08:30:00Z"),
		record(t, "5", "2025-06-07T17:30:00Z"),
		record(t, "7", "2025-06-08T09:00:00Z"),
	}

	stats := ComputeStats(records)
	if stats.TotalAttendances != 3 {
		t.Fatalf("wrong total: %d", stats.TotalAttendances)
	}
	if stats.UniqueUsers != 2 {
		t.Fatalf("wrong unique user count: %d", stats.UniqueUsers)
	}
	want := []DateCount{{Date: "2025-06-07", Count: 2}, {Date: "2025-06-08", Count: 1}}
	if !reflect.DeepEqual(stats.ByDate, want) {
		t.Fatalf("wrong by-date counts: %+v", stats.ByDate)
	}
}

func TestFormatInstant(t *testing.T) {
	instant := ts(t, "2025-06-07T10:21:02Z")

	got, err := FormatInstant(instant, "UTC")
	if err != nil {
		t.Fatalf("FormatInstant with UTC failed: %v", err)
	}
	if got != "10:21:02" {
		t.Fatalf("expected local time of day, got %q", got)
	}

	got, err = FormatInstant(instant, "")
	if err != nil {
		t.Fatalf("FormatInstant without timezone failed: %v", err)
	}
	if got != "2025-06-07T10:21:02.000Z" {
		t.Fatalf("expected ISO UTC instant, got %q", got)
	}

	if _, err := FormatInstant(instant, "Not/AZone"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

// The reference scenario: two punches for user 5 on one day become a single
// summary with ISO-rendered check times.
func TestSummarizeEndToEnd(t *testing.T) {
	records := []device.RawAttendanceRecord{
		record(t, "5", "2025-06-07T08:30:00Z"),
		record(t, "5", "2025-06-07T17:30:00Z"),
	}

	got := Summarize(records, map[string]string{"5": "John Doe"})
	if len(got) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(got))
	}

	s := got[0]
	if s.DeviceUserID != "5" || s.Date != "2025-06-07" {
		t.Fatalf("unexpected summary key: %+v", s)
	}

	checkIn, _ := FormatInstant(s.CheckIn, "")
	checkOut, _ := FormatInstant(s.CheckOut, "")
	if checkIn != "2025-06-07T08:30:00.000Z" {
		t.Fatalf("wrong checkIn rendering: %q", checkIn)
	}
	if checkOut != "2025-06-07T17:30:00.000Z" {
		t.Fatalf("wrong checkOut rendering: %q", checkOut)
	}
}
