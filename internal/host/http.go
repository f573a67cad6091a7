package host

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	json "github.com/json-iterator/go"

	"github.com/binsort-io/binsort/internal/protocol"
	"github.com/binsort-io/binsort/pkg/log"
)

// maxRequestBody bounds intake request bodies.
const maxRequestBody = 16 << 10

type classificationRequest struct {
	Label string `json:"label"`
}

type actionRequest struct {
	Label     string                  `json:"label,omitempty"`
	Direction protocol.Direction      `json:"direction,omitempty"`
	Settings  *protocol.SettingsPatch `json:"settings,omitempty"`
}

// intake exposes a Controller over HTTP.
type intake struct {
	ctrl Controller
}

// RegisterRoutes mounts the classification, action and state endpoints on r.
func RegisterRoutes(r *mux.Router, ctrl Controller) {
	h := &intake{ctrl: ctrl}
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/classifications", h.classify).Methods(http.MethodPost)
	v1.HandleFunc("/actions/{action}", h.action).Methods(http.MethodPost)
	v1.HandleFunc("/state", h.state).Methods(http.MethodGet)
}

func (h *intake) classify(w http.ResponseWriter, r *http.Request) {
	var req classificationRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Errorf("invalid request body: %s", err))
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, protocol.Errorf("No label provided"))
		return
	}
	writeResponse(w, h.ctrl.HandleClassification(r.Context(), req.Label))
}

func (h *intake) action(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.Errorf("invalid request body: %s", err))
		return
	}

	ctx := r.Context()
	action := protocol.Action(mux.Vars(r)["action"])

	var resp protocol.Response
	switch action {
	case protocol.ActionShiftPanels:
		if err := (protocol.Command{Action: action, Direction: req.Direction}).Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, protocol.Errorf("%s", err))
			return
		}
		resp = h.ctrl.ShiftPanels(ctx, req.Direction)
	case protocol.ActionResetPanels:
		resp = h.ctrl.ResetPanels(ctx)
	case protocol.ActionExtendRods:
		resp = h.ctrl.ExtendRods(ctx)
	case protocol.ActionRetractRods:
		resp = h.ctrl.RetractRods(ctx)
	case protocol.ActionOpenTrap:
		resp = h.ctrl.OpenTrap(ctx)
	case protocol.ActionCloseTrap:
		resp = h.ctrl.CloseTrap(ctx)
	case protocol.ActionStopAll:
		resp = h.ctrl.StopAllMotors(ctx)
	case protocol.ActionClassify:
		if err := (protocol.Command{Action: action, Label: req.Label}).Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, protocol.Errorf("%s", err))
			return
		}
		resp = h.ctrl.HandleClassification(ctx, req.Label)
	case protocol.ActionConfigure:
		if err := (protocol.Command{Action: action, Settings: req.Settings}).Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, protocol.Errorf("%s", err))
			return
		}
		resp = h.ctrl.Configure(ctx, *req.Settings)
	default:
		writeJSON(w, http.StatusNotFound, protocol.Errorf("Unknown action: %s", action))
		return
	}
	writeResponse(w, resp)
}

func (h *intake) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.State())
}

// decodeBody reads an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// writeResponse maps the controller's answer onto a status code. Simulated is a success
// from the caller's point of view.
func writeResponse(w http.ResponseWriter, resp protocol.Response) {
	code := http.StatusOK
	if resp.Status == protocol.StatusError {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error(err, "Failed to encode HTTP response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
