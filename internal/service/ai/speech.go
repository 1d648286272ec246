package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SpeechAudioMIME is the content type of synthesized audio.
const SpeechAudioMIME = "audio/mpeg"

type ttsRequest struct {
	App struct {
		AppID   string `json:"appid"`
		Token   string `json:"token"`
		Cluster string `json:"cluster"`
	} `json:"app"`
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	Audio struct {
		VoiceType   string  `json:"voice_type"`
		Encoding    string  `json:"encoding"`
		SpeedRatio  float32 `json:"speed_ratio,omitempty"`
		VolumeRatio float32 `json:"volume_ratio,omitempty"`
	} `json:"audio"`
	Request struct {
		ReqID     string `json:"reqid"`
		Text      string `json:"text"`
		Operation string `json:"operation"`
	} `json:"request"`
}

type ttsResponse struct {
	ReqID   string `json:"reqid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// SynthesizeSpeech performs one-shot text-to-speech and returns decodable
// audio bytes from a single call.
func (s *Service) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if !s.speech.Enabled {
		return nil, fmt.Errorf("%w: speech credentials are missing", ErrNotInitialized)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrGeneration)
	}

	var payload ttsRequest
	payload.App.AppID = s.speech.AppID
	payload.App.Token = s.speech.AccessToken
	payload.App.Cluster = s.speech.Cluster
	payload.User.UID = uuid.NewString()
	payload.Audio.VoiceType = s.speech.Voice
	payload.Audio.Encoding = "mp3"
	payload.Audio.SpeedRatio = s.speech.Speed
	payload.Audio.VolumeRatio = s.speech.Volume
	payload.Request.ReqID = uuid.NewString()
	payload.Request.Text = text
	payload.Request.Operation = "query"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal tts request: %v", ErrGeneration, err)
	}

	url := s.speech.BaseURL + "/api/v1/tts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The speech endpoint expects this bearer format, semicolon included.
	req.Header.Set("Authorization", "Bearer;"+s.speech.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read tts response: %v", ErrGeneration, err)
	}

	var decoded ttsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode tts response: %v", ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Data == "" {
		return nil, fmt.Errorf("%w: tts status %d code %d: %s", ErrGeneration, resp.StatusCode, decoded.Code, decoded.Message)
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio payload: %v", ErrGeneration, err)
	}
	return audio, nil
}
