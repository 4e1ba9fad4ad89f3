package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldvoice/fieldvoice-hub/internal/api"
	"github.com/fieldvoice/fieldvoice-hub/internal/config"
	"github.com/fieldvoice/fieldvoice-hub/internal/llm"
	"github.com/fieldvoice/fieldvoice-hub/internal/logging"
)

// createTestConfig builds a minimal configuration for server tests
func createTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		OpenAI: config.OpenAIConfig{
			APIKey:   "sk-test",
			BaseURL:  "https://api.openai.com/v1",
			GPTModel: "gpt-4o-mini",
			Timeout:  10 * time.Second,
		},
		Audio: config.AudioConfig{
			MaxSizeMB:        25,
			SupportedFormats: []string{"m4a", "mp4", "wav", "mp3", "webm"},
		},
		TTS: config.TTSConfig{
			Model:          "tts-1",
			Voice:          "alloy",
			ResponseFormat: "mp3",
			MaxConcurrent:  10,
			Timeout:        10 * time.Second,
		},
	}
}

func createTestServer(cfg *config.Config) *Server {
	client := llm.NewClient(cfg.OpenAI)
	deps := Deps{
		Pipeline: api.NewPipelineHandler(api.PipelineDeps{
			Transcriber: llm.NewWhisperClient(client, "en"),
			Extractor:   llm.NewCloseoutExtractor(llm.NewChatClient(client), cfg.OpenAI.GPTModel),
			Agent:       nil,
			TTS:         llm.NewSpeechClient(client, cfg.TTS),
			Limits: llm.AudioLimits{
				MaxSizeMB:        cfg.Audio.MaxSizeMB,
				SupportedFormats: cfg.Audio.SupportedFormats,
			},
		}),
		Closeout:      api.NewCloseoutHandler(nil),
		CommandEvents: api.NewCommandEventsHandler(nil),
		Reports:       api.NewReportEventsHandler(nil),
	}
	return New(cfg, deps)
}

func TestNew(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg := createTestConfig()
	server := createTestServer(cfg)
	if server == nil {
		t.Fatal("New() returned nil server")
	}

	if server.cfg != cfg {
		t.Error("Server configuration not set correctly")
	}
	if server.mux == nil {
		t.Error("Server mux not initialized")
	}
	if server.ctx == nil || server.cancel == nil {
		t.Error("Server context not initialized")
	}
}

func TestServerConfiguration(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg := createTestConfig()
	server := createTestServer(cfg)

	assert.Equal(t, cfg, server.cfg)
	assert.Equal(t, "0.0.0.0:3000", server.server.Addr)
	assert.Equal(t, 15*time.Second, server.server.ReadTimeout)
	assert.Equal(t, 15*time.Second, server.server.WriteTimeout)
	assert.Equal(t, 60*time.Second, server.server.IdleTimeout)
}

func TestHandleHealth(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg := createTestConfig()
	server := createTestServer(cfg)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var health map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "fieldvoice-hub", health["service"])
	assert.Contains(t, health, "timestamp")
	assert.Contains(t, health, "version")

	services, ok := health["services"].(map[string]interface{})
	require.True(t, ok, "services should be a map")
	assert.Equal(t, "configured", services["openai"])
	assert.Equal(t, "not_configured", services["email"])
	assert.Equal(t, "disabled", services["nats"])
	assert.Equal(t, "unavailable", services["database"])
}

func TestHandleRoot(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg := createTestConfig()
	server := createTestServer(cfg)

	// Root answers like /health for discovery probes
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown paths under / are 404
	req = httptest.NewRequest("GET", "/no-such-path", nil)
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg := createTestConfig()
	server := createTestServer(cfg)

	endpoints := []struct {
		path   string
		method string
		body   string
	}{
		{"/health", "GET", ""},
		{"/transcribe", "POST", `{"audio": "", "format": "m4a"}`},
		{"/summarize", "POST", `{"transcription": ""}`},
		{"/generate-pdf", "POST", `{}`},
		{"/send-email", "POST", `{}`},
		{"/voice-command", "POST", `{"audio": "", "format": "m4a"}`},
		{"/text-to-speech", "POST", `{"text": ""}`},
		{"/api/command-events", "GET", ""},
		{"/api/reports", "GET", ""},
		{"/metrics", "GET", ""},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.path, func(t *testing.T) {
			req := httptest.NewRequest(endpoint.method, endpoint.path, strings.NewReader(endpoint.body))
			if endpoint.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()

			server.mux.ServeHTTP(w, req)

			assert.NotEqual(t, http.StatusNotFound, w.Code, "Route %s should be registered", endpoint.path)
		})
	}
}

func TestServerStartStop(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg := createTestConfig()
	cfg.Server.Port = 0 // Use any available port for testing
	server := createTestServer(cfg)

	startErrChan := make(chan error, 1)
	go func() {
		startErrChan <- server.Start()
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	stopErr := server.Stop()
	assert.NoError(t, stopErr)

	select {
	case startErr := <-startErrChan:
		assert.NoError(t, startErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down within timeout")
	}
}
