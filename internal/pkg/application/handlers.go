package application

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/application/inventory"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/application/telemetry"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/domain"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/auth"
	"github.com/iot-for-tillgenglighet/iot-tagdata/internal/pkg/infrastructure/logging"
)

const maxBodySize = 1 << 20

type handlers struct {
	telemetry *telemetry.Service
	inventory *inventory.Service
	log       logging.Logger
}

func principal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errCodeBadRequest, "Malformed request body: "+err.Error())
		return false
	}
	return true
}

type ingestBody struct {
	Tag       string          `json:"tag"`
	Value     json.RawMessage `json:"value"`
	Timestamp *string         `json:"timestamp"`
}

//toRequest accepts the value as a json string, number or boolean
func (b ingestBody) toRequest() (telemetry.IngestRequest, error) {
	req := telemetry.IngestRequest{Tag: b.Tag}

	raw := bytes.TrimSpace(b.Value)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return req, domain.NewValidationError("value", "This field is required.")
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &req.Value); err != nil {
			return req, domain.NewValidationError("value", "Not a valid string.")
		}
	case raw[0] == '{' || raw[0] == '[':
		return req, domain.NewValidationError("value", "Not a valid string.")
	default:
		req.Value = string(raw)
	}

	if b.Timestamp != nil && *b.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, *b.Timestamp)
		if err != nil {
			return req, domain.NewValidationError("timestamp", "Datetime has wrong format. Use a date and time with zone designator, e.g. 2010-06-30T15:30:00Z.")
		}
		req.Timestamp = &ts
	}

	return req, nil
}

func (h *handlers) ingestDataPoint(w http.ResponseWriter, r *http.Request) {
	body := ingestBody{}
	if !h.decodeBody(w, r, &body) {
		return
	}

	req, err := body.toRequest()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	point, err := h.telemetry.Ingest(r.Context(), principal(r), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dp, err := telemetry.NewDataPoint(point)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, dp)
}

func (h *handlers) queryDataPoints(w http.ResponseWriter, r *http.Request) {
	filter, err := telemetry.ParseFilter(r.URL.Query())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	if tag := chi.URLParam(r, "tag"); tag != "" {
		filter.Tag = tag
	}

	points, err := h.telemetry.Query(r.Context(), principal(r), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := telemetry.NewDataPoints(points)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handlers) currentDataPoints(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tag")
	if tagID == "" {
		tagID = r.URL.Query().Get("tag")
	}

	points, err := h.telemetry.Current(r.Context(), principal(r), tagID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	result, err := telemetry.NewDataPoints(points)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handlers) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.inventory.ListDevices(r.Context(), principal(r), false)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewDevices(devices))
}

func (h *handlers) createDevice(w http.ResponseWriter, r *http.Request) {
	in := inventory.DeviceInput{}
	if !h.decodeBody(w, r, &in) {
		return
	}

	device, err := h.inventory.CreateDevice(r.Context(), principal(r), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, inventory.NewDevice(device))
}

func (h *handlers) getDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.inventory.GetDevice(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewDevice(device))
}

func (h *handlers) updateDevice(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := inventory.DeviceInput{}
		if !h.decodeBody(w, r, &in) {
			return
		}

		device, err := h.inventory.UpdateDevice(r.Context(), principal(r), chi.URLParam(r, "id"), in, partial)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusOK, inventory.NewDevice(device))
	}
}

func (h *handlers) deleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteDevice(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listDeviceTags(w http.ResponseWriter, r *http.Request) {
	devices, err := h.inventory.ListDevices(r.Context(), principal(r), true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewDevicesWithTags(devices))
}

func (h *handlers) getDeviceTags(w http.ResponseWriter, r *http.Request) {
	device, err := h.inventory.GetDevice(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewDeviceWithTags(device))
}

func (h *handlers) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.inventory.ListTags(r.Context(), principal(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewTags(tags))
}

func (h *handlers) createTag(w http.ResponseWriter, r *http.Request) {
	in := inventory.TagInput{}
	if !h.decodeBody(w, r, &in) {
		return
	}

	tag, err := h.inventory.CreateTag(r.Context(), principal(r), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, inventory.NewTag(tag))
}

func (h *handlers) getTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.inventory.GetTag(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewTag(tag))
}

func (h *handlers) updateTag(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := inventory.TagInput{}
		if !h.decodeBody(w, r, &in) {
			return
		}

		tag, err := h.inventory.UpdateTag(r.Context(), principal(r), chi.URLParam(r, "id"), in, partial)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusOK, inventory.NewTag(tag))
	}
}

func (h *handlers) deleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteTag(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listValueTypes(w http.ResponseWriter, r *http.Request) {
	valueTypes, err := h.inventory.ListValueTypes(r.Context(), principal(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewValueTypes(valueTypes))
}

func (h *handlers) createValueType(w http.ResponseWriter, r *http.Request) {
	in := inventory.ValueTypeInput{}
	if !h.decodeBody(w, r, &in) {
		return
	}

	valueType, err := h.inventory.CreateValueType(r.Context(), principal(r), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, inventory.NewValueType(valueType))
}

func (h *handlers) getValueType(w http.ResponseWriter, r *http.Request) {
	valueType, err := h.inventory.GetValueType(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inventory.NewValueType(valueType))
}

func (h *handlers) updateValueType(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := inventory.ValueTypeInput{}
		if !h.decodeBody(w, r, &in) {
			return
		}

		valueType, err := h.inventory.UpdateValueType(r.Context(), principal(r), chi.URLParam(r, "id"), in, partial)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusOK, inventory.NewValueType(valueType))
	}
}

func (h *handlers) deleteValueType(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.DeleteValueType(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
