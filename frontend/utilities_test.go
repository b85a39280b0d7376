package frontend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
)

type fixedState State

func (s fixedState) State() State { return State(s) }

func TestHeartbeat(t *testing.T) {
	t.Parallel()

	startTime := time.Now().Add(-90 * time.Second)

	tests := map[string]struct {
		state      State
		wantStatus int
	}{
		"ok/ running":  {state: Running, wantStatus: http.StatusOK},
		"ng/ draining": {state: Draining, wantStatus: http.StatusServiceUnavailable},
		"ng/ stopped":  {state: Stopped, wantStatus: http.StatusServiceUnavailable},
	}

	for name := range tests {
		tt := tests[name]
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// --- given ---
			rec := httptest.NewRecorder()
			uah := NewUtilityAPIHandlers(fixedState(tt.state), startTime)

			// --- when ---
			uah.heartbeat(rec, nil)

			// --- then ---
			assert.Equal(t, tt.wantStatus, rec.Code)
			hm := HeartbeatMessage{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&hm))
			assert.Equal(t, tt.state.String(), hm.Status)
			assert.Equal(t, utils.Tag, hm.Version)
			uptime, err := time.ParseDuration(hm.Uptime)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, uptime, 90*time.Second)
		})
	}
}

func TestUtilityRoutes(t *testing.T) {
	t.Parallel()

	routes := NewUtilityAPIHandlers(fixedState(Running), time.Now()).Routes()

	patterns := map[string]bool{}
	for _, r := range routes {
		require.NotNil(t, r.Handler)
		patterns[r.Pattern] = true
	}
	assert.True(t, patterns["/heartbeat"])
	assert.True(t, patterns["/pprof/"])
}
