package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := NewClient(ts.URL+"/api/generate-image", 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("", 0, nil)
	assert.Error(t, err)
}

func TestGenerateSendsExactPayload(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-image", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"image":"data:image/png;base64,AAAA","prompt":"a red fox in snow","settings":{"steps":20,"sampler":"euler"}}`))
	})

	resp, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:        "a red fox in snow",
		Width:         512,
		Height:        512,
		Steps:         20,
		GuidanceScale: 7.5,
		Seed:          -1,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"prompt":          "a red fox in snow",
		"width":           float64(512),
		"height":          float64(512),
		"steps":           float64(20),
		"guidance_scale":  7.5,
		"seed":            float64(-1),
		"negative_prompt": "",
	}, body)

	assert.Equal(t, "data:image/png;base64,AAAA", resp.Image)
	assert.Equal(t, "a red fox in snow", resp.Prompt)
	assert.Equal(t, "euler", resp.Settings["sampler"])
}

func TestGenerateUsesServiceErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"prompt rejected by safety filter"}`))
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnprocessableEntity, serr.StatusCode)
	assert.Equal(t, "prompt rejected by safety filter", serr.Error())
}

func TestGenerateFallsBackToGenericMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no error field", http.StatusInternalServerError, `{}`},
		{"non json error", http.StatusBadGateway, `<html>bad gateway</html>`},
		{"non json success", http.StatusOK, `not json`},
		{"redirect status", http.StatusNotModified, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "x"})
			var serr *ServiceError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, DefaultErrorMessage, serr.Message)
		})
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := ts.URL
	ts.Close()

	client, err := NewClient(endpoint, time.Second, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	var serr *ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 0, serr.StatusCode)
	assert.Equal(t, DefaultErrorMessage, serr.Message)
	assert.NotNil(t, errors.Unwrap(serr))
}

func TestGenerateHonoursContext(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	// runs before the server's Close so the handler can return
	t.Cleanup(func() { close(release) })
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlotContext(t *testing.T) {
	_, ok := SlotFromContext(context.Background())
	assert.False(t, ok)

	slot, ok := SlotFromContext(WithSlot(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, 3, slot)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(GenerateRequest{Prompt: "fox", Seed: -1})
	b := Fingerprint(GenerateRequest{Prompt: "fox", Seed: -1})
	c := Fingerprint(GenerateRequest{Prompt: "fox", Seed: 42})

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestClientLogsUnderImagegen(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	client, err := NewClient(ts.URL, 5*time.Second, zap.New(core))
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), GenerateRequest{Prompt: "fox"})
	require.Error(t, err)

	warnings := logs.FilterMessage("API request failed").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "imagegen", warnings[0].LoggerName)
	assert.Equal(t, ts.URL, warnings[0].ContextMap()["endpoint"])
}
