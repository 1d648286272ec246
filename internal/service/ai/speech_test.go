package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omnichat/backend/internal/config"
)

func speechService(baseURL string) *Service {
	return NewService(config.AIConfig{}, config.SpeechConfig{
		AppID:       "app-1",
		AccessToken: "tok-1",
		Cluster:     "volcano_tts",
		Voice:       "BV001_streaming",
		BaseURL:     baseURL,
		Enabled:     true,
	})
}

func TestSynthesizeSpeechDecodesAudio(t *testing.T) {
	audio := []byte("mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer;tok-1" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.App.AppID != "app-1" || req.App.Cluster != "volcano_tts" {
			t.Errorf("unexpected app block: %+v", req.App)
		}
		if req.Audio.VoiceType != "BV001_streaming" || req.Audio.Encoding != "mp3" {
			t.Errorf("unexpected audio block: %+v", req.Audio)
		}
		if req.Request.Text != "hello world" || req.Request.Operation != "query" {
			t.Errorf("unexpected request block: %+v", req.Request)
		}
		if req.Request.ReqID == "" || req.User.UID == "" {
			t.Error("reqid and uid must be populated")
		}

		json.NewEncoder(w).Encode(ttsResponse{
			Code: 3000,
			Data: base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer srv.Close()

	got, err := speechService(srv.URL).SynthesizeSpeech(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("SynthesizeSpeech err: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Fatalf("audio round trip mismatch: %q", got)
	}
}

func TestSynthesizeSpeechBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ttsResponse{Code: 3001, Message: "invalid voice"})
	}))
	defer srv.Close()

	_, err := speechService(srv.URL).SynthesizeSpeech(context.Background(), "hello")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestSynthesizeSpeechEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ttsResponse{Code: 3000})
	}))
	defer srv.Close()

	_, err := speechService(srv.URL).SynthesizeSpeech(context.Background(), "hello")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestSynthesizeSpeechRequiresCredentials(t *testing.T) {
	svc := NewService(config.AIConfig{}, config.SpeechConfig{})

	_, err := svc.SynthesizeSpeech(context.Background(), "hello")
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSynthesizeSpeechRejectsEmptyText(t *testing.T) {
	_, err := speechService("http://unused").SynthesizeSpeech(context.Background(), "  \n")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}
