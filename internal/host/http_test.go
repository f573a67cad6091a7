package host

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsort-io/binsort/internal/actuator"
	"github.com/binsort-io/binsort/internal/protocol"
)

func TestIntake(t *testing.T) {
	l, _ := newLocal()
	defer l.Close()

	r := mux.NewRouter()
	RegisterRoutes(r, l)

	do := func(method, path, body string) (int, []byte) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec.Code, rec.Body.Bytes()
	}
	response := func(b []byte) protocol.Response {
		var resp protocol.Response
		require.NoError(t, json.Unmarshal(b, &resp))
		return resp
	}

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		want     protocol.Response
	}{
		{"classify", "/v1/classifications", `{"label":"paper_cardboard"}`, http.StatusOK, protocol.Success("Sorted: paper_cardboard")},
		{"classify unknown", "/v1/classifications", `{"label":"banana"}`, http.StatusUnprocessableEntity, protocol.Errorf("Unknown label: banana")},
		{"classify missing label", "/v1/classifications", `{}`, http.StatusBadRequest, protocol.Errorf("No label provided")},
		{"classify action", "/v1/actions/classify", `{"label":"glass"}`, http.StatusOK, protocol.Success("Sorted: glass")},
		{"classify action missing label", "/v1/actions/classify", `{}`, http.StatusBadRequest, protocol.Errorf("No label provided")},
		{"shift left", "/v1/actions/shift_panels", `{"direction":"left"}`, http.StatusOK, protocol.Success("Panels shifted: left")},
		{"shift invalid", "/v1/actions/shift_panels", `{"direction":"up"}`, http.StatusBadRequest, protocol.Errorf("Invalid direction: up")},
		{"open trap without body", "/v1/actions/open_trap", ``, http.StatusOK, protocol.Success("Trap opened")},
		{"configure", "/v1/actions/configure", `{"settings":{"speed":20}}`, http.StatusOK, protocol.Success("Settings updated")},
		{"configure without settings", "/v1/actions/configure", `{}`, http.StatusBadRequest, protocol.Errorf("No settings provided")},
		{"unknown action", "/v1/actions/fly", ``, http.StatusNotFound, protocol.Errorf("Unknown action: fly")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.want, response(body))
		})
	}

	code, body := do(http.MethodGet, "/v1/state", "")
	require.Equal(t, http.StatusOK, code)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, ConnectionLocal, snap.Connection)
	assert.Equal(t, actuator.PanelLeft, snap.Actuators.Panel)
	assert.Equal(t, actuator.TrapOpen, snap.Actuators.Trap)
	assert.Equal(t, 20, snap.Settings.Speed)
}
