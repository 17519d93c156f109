package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/chargedblocks/internal/testutil"
)

func TestLoggingLevels(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  "INFO",
		http.StatusNotFound:            "INFO",
		http.StatusServiceUnavailable:  "WARN",
		http.StatusInternalServerError: "ERROR",
	}
	for status, level := range cases {
		logger, buf := testutil.BufferLogger()
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("body"))
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, level, entry["level"], "status %d", status)
		assert.Equal(t, float64(status), entry["status"])
		assert.Equal(t, float64(4), entry["size"])
	}
}

func TestRecoveryWritesDefault500(t *testing.T) {
	logger, buf := testutil.BufferLogger()
	h := Recovery(logger, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecoveryUsesHandler(t *testing.T) {
	logger := testutil.NopLogger()
	var got any
	h := Recovery(logger, func(w http.ResponseWriter, _ *http.Request, err any) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "boom", got)
}
