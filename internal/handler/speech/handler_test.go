package speech

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/omnichat/backend/internal/config"
	"github.com/omnichat/backend/internal/service/ai"
)

func newTestRouter(speechCfg config.SpeechConfig) chi.Router {
	r := chi.NewRouter()
	New(ai.NewService(config.AIConfig{}, speechCfg)).RegisterRoutes(r)
	return r
}

func postSpeech(r chi.Router, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/speech", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleSynthesizeReturnsAudio(t *testing.T) {
	audio := []byte("mp3-bytes")
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 3000,
			"data": base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer tts.Close()

	r := newTestRouter(config.SpeechConfig{
		AppID:       "app",
		AccessToken: "tok",
		Cluster:     "volcano_tts",
		Voice:       "BV001_streaming",
		BaseURL:     tts.URL,
		Enabled:     true,
	})

	rec := postSpeech(r, `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != ai.SpeechAudioMIME {
		t.Fatalf("content type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), audio) {
		t.Fatalf("unexpected audio body: %q", rec.Body.Bytes())
	}
}

func TestHandleSynthesizeMissingText(t *testing.T) {
	r := newTestRouter(config.SpeechConfig{Enabled: true})

	rec := postSpeech(r, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleSynthesizeDisabled(t *testing.T) {
	r := newTestRouter(config.SpeechConfig{})

	rec := postSpeech(r, `{"text":"hello"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleSynthesizeBackendFailure(t *testing.T) {
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"code": 3005, "message": "boom"})
	}))
	defer tts.Close()

	r := newTestRouter(config.SpeechConfig{
		AppID:       "app",
		AccessToken: "tok",
		BaseURL:     tts.URL,
		Enabled:     true,
	})

	rec := postSpeech(r, `{"text":"hello"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}
