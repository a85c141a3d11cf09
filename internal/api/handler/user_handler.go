package handler

import (
	"net/http"

	"zkbridge.service/internal/core"
	"zkbridge.service/internal/ports/device"
)

type UserHandler struct {
	Service  *core.DeviceService
	Defaults device.Endpoint
}

// GetAllUsers serves the terminal's user table verbatim.
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	users, err := h.Service.ListUsers(ctx, endpoint)
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	writeData(w, users, map[string]any{"total": len(users)})
}
