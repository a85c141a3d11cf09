package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"zkbridge.service/internal/core"
	"zkbridge.service/internal/core/aggregate"
	"zkbridge.service/internal/core/stream"
	"zkbridge.service/internal/ports/device"
)

type DeviceHandler struct {
	Service  *core.DeviceService
	Defaults device.Endpoint
}

// realtimeLogView is one SSE frame as serialized to the client.
type realtimeLogView struct {
	DeviceUserID string `json:"userId"`
	AttTime      string `json:"attTime"`
	VerifyMethod int    `json:"verifyMethod"`
	InOutMode    int    `json:"inOutMode"`
}

// Connect verifies the terminal accepts a connection. The session is torn
// down immediately; this endpoint only answers "is the device reachable".
func (h *DeviceHandler) Connect(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	if err := h.Service.TestConnection(ctx, endpoint); err != nil {
		writeDeviceError(w, err)
		return
	}
	writeMessage(w, "Successfully connected to terminal")
}

// Info serves the terminal's user and log counters.
func (h *DeviceHandler) Info(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	info, err := h.Service.Info(ctx, endpoint)
	if err != nil {
		writeDeviceError(w, err)
		return
	}
	writeData(w, info, nil)
}

// Enable resumes the terminal's local operation.
func (h *DeviceHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true, "Device successfully enabled")
}

// Disable suspends the terminal's local operation.
func (h *DeviceHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false, "Device successfully disabled")
}

func (h *DeviceHandler) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool, message string) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := core.Timeout(r.Context(), endpoint)
	defer cancel()

	if err := h.Service.SetEnabled(ctx, endpoint, enabled); err != nil {
		writeDeviceError(w, err)
		return
	}
	writeMessage(w, message)
}

// RealtimeLogs streams device push events as Server-Sent Events, one
// `data: {...}` frame per punch, until the client disconnects or the device
// stream fails. The device session lives exactly as long as this request.
func (h *DeviceHandler) RealtimeLogs(w http.ResponseWriter, r *http.Request) {
	endpoint, err := parseEndpoint(r, h.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// r.Context() is cancelled when the client goes away; that is the only
	// cancellation signal the stream needs.
	wroteFrame := false
	err = h.Service.StreamRealtime(r.Context(), endpoint, func(frame stream.Frame) error {
		attTime, err := aggregate.FormatInstant(frame.AttTime, "")
		if err != nil {
			return err
		}
		payload, err := json.Marshal(realtimeLogView{
			DeviceUserID: frame.DeviceUserID,
			AttTime:      attTime,
			VerifyMethod: frame.VerifyMethod,
			InOutMode:    frame.InOutMode,
		})
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		wroteFrame = true
		return nil
	})
	if err != nil {
		if !wroteFrame {
			writeDeviceError(w, err)
			return
		}
		// The stream was already flowing; the most we can do is log and
		// drop the connection.
		log.Ctx(r.Context()).Error().Err(err).Msg("Realtime stream ended with error")
	}
}
