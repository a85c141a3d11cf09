package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"zkbridge.service/internal/api/handler"
	"zkbridge.service/internal/core"
	"zkbridge.service/internal/ports/device"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.DeviceService, defaults device.Endpoint) *mux.Router {

	attendanceHandler := handler.AttendanceHandler{Service: service, Defaults: defaults}
	deviceHandler := handler.DeviceHandler{Service: service, Defaults: defaults}
	userHandler := handler.UserHandler{Service: service, Defaults: defaults}

	r := mux.NewRouter()

	startedAt := time.Now()
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		handler.Health(w, req, startedAt)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/users", userHandler.GetAllUsers).Methods(http.MethodGet)

	api.HandleFunc("/attendances", attendanceHandler.GetAttendances).Methods(http.MethodGet)
	api.HandleFunc("/attendances-unique", attendanceHandler.GetUniqueAttendances).Methods(http.MethodGet)
	api.HandleFunc("/attendances/summary", attendanceHandler.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/attendances/clear", attendanceHandler.ClearLogs).Methods(http.MethodDelete)

	api.HandleFunc("/device/connect", deviceHandler.Connect).Methods(http.MethodPost)
	api.HandleFunc("/device/info", deviceHandler.Info).Methods(http.MethodGet)
	api.HandleFunc("/device/enable", deviceHandler.Enable).Methods(http.MethodPost)
	api.HandleFunc("/device/disable", deviceHandler.Disable).Methods(http.MethodPost)
	api.HandleFunc("/device/realtime-logs", deviceHandler.RealtimeLogs).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	return r
}
