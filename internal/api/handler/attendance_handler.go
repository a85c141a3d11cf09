package handler

import (
	"net/http"
	"time"

	"zkbridge.service/internal/core"
	"zkbridge.service/internal/core/aggregate"
	"zkbridge.service/internal/ports/device"
)

type AttendanceHandler struct {
	Service  *core.DeviceService
	Defaults device.Endpoint
}

// uniqueAttendanceView is one daily summary with the check times already
// rendered: HH:mm:ss when a timezone was requested, ISO UTC otherwise.
type uniqueAttendanceView struct {
	UserSN       int    `json:"userSn"`
	DeviceUserID string `json:"deviceUserId"`
	Username     string `json:"username"`
	Date         string `json:"date"`
	CheckIn      string `json:"checkIn"`
	CheckOut     string `json:"checkOut"`
}

// GetAttendances serves the filtered raw punch log, each record annotated
// with the resolved username.
func (h *AttendanceHandler) GetAttendances(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	records, err := h.Service.Attendances(ctx, endpoint, rng)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	writeData(w, records, rangeMeta(len(records), rng))
}

// GetUniqueAttendances serves one row per (deviceUserId, date) with derived
// check-in/check-out times.
func (h *AttendanceHandler) GetUniqueAttendances(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	timezone, err := parseTimezone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	summaries, err := h.Service.UniqueAttendances(ctx, endpoint, rng)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	views := make([]uniqueAttendanceView, 0, len(summaries))
	for _, s := range summaries {
		checkIn, err := aggregate.FormatInstant(s.CheckIn, timezone)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		checkOut, err := aggregate.FormatInstant(s.CheckOut, timezone)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		views = append(views, uniqueAttendanceView{
			UserSN:       s.UserSN,
			DeviceUserID: s.DeviceUserID,
			Username:     s.Username,
			Date:         s.Date,
			CheckIn:      checkIn,
			CheckOut:     checkOut,
		})
	}

	writeData(w, views, rangeMeta(len(views), rng))
}

// GetSummary serves aggregate counters over the filtered log.
func (h *AttendanceHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	stats, err := h.Service.AttendanceStats(ctx, endpoint, rng)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	dateRange := map[string]any{}
	if rng.From != nil {
		dateRange["from"] = rng.From.UTC().Format(time.RFC3339)
	}
	if rng.To != nil {
		dateRange["to"] = rng.To.UTC().Format(time.RFC3339)
	}

	data := map[string]any{
		"totalAttendances":  stats.TotalAttendances,
		"uniqueUsers":       stats.UniqueUsers,
		"dateRange":         dateRange,
		"attendancesByDate": stats.ByDate,
	}
	writeData(w, data, nil)
}

// ClearLogs wipes the terminal's attendance log. Destructive and
// irreversible; callers are expected to gate this themselves.
func (h *AttendanceHandler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	if err := h.Service.ClearAttendanceLog(ctx, endpoint); err != nil {
		writeDeviceError(w, err)
		return
	}
	writeMessage(w, "Attendance logs successfully cleared")
}
