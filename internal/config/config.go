package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	chatmodel "github.com/omnichat/backend/internal/model/chat"
)

// Config aggregates all service configuration.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Speech  SpeechConfig
	Storage StorageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Speech:  speech,
		Storage: loadStorageConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the generation backend: credentials plus the model ids
// backing each model class and the one-shot video job.
type AIConfig struct {
	APIKey         string
	BaseURL        string
	Region         string
	LightModel     string
	ReasoningModel string
	VisionModel    string
	VisionProModel string
	VideoModel     string
	VideoPoll      time.Duration
	MaxTokens      *int
}

// Enabled reports whether the generation credential is present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// ModelFor maps a model class to its configured model id.
func (c AIConfig) ModelFor(class chatmodel.ModelClass) string {
	switch class {
	case chatmodel.ModelReasoning:
		return c.ReasoningModel
	default:
		return c.LightModel
	}
}

// NewChatModel constructs an Ark-backed chat model for the given model id
// and sampling temperature.
func (c AIConfig) NewChatModel(ctx context.Context, modelID string, temperature float32) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ARK_API_KEY is not configured")
	}
	if modelID == "" {
		return nil, fmt.Errorf("model id is empty")
	}

	temp := temperature
	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       modelID,
		MaxTokens:   c.MaxTokens,
		Temperature: &temp,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	pollSeconds := 5
	if override, err := parseOptionalIntEnv("VIDEO_POLL_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		pollSeconds = *override
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		LightModel:     getEnvOrDefault("CHAT_MODEL_LIGHT", "doubao-seed-1-6-flash-250828"),
		ReasoningModel: getEnvOrDefault("CHAT_MODEL_REASONING", "doubao-seed-1-6-thinking-250715"),
		VisionModel:    getEnvOrDefault("VISION_MODEL", "doubao-1-5-vision-pro-32k-250115"),
		VisionProModel: getEnvOrDefault("VISION_PRO_MODEL", "doubao-seed-1-6-250615"),
		VideoModel:     getEnvOrDefault("VIDEO_MODEL", "doubao-seedance-1-0-pro-250528"),
		VideoPoll:      time.Duration(pollSeconds) * time.Second,
		MaxTokens:      maxTokens,
	}, nil
}

// SpeechConfig describes the one-shot speech synthesis backend.
type SpeechConfig struct {
	AppID       string
	AccessToken string
	Cluster     string
	Voice       string
	Speed       float32
	Volume      float32
	BaseURL     string
	Timeout     int
	Enabled     bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	speed, err := parseOptionalFloat32Env("SPEECH_TTS_SPEED")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsSpeed := float32(1.0)
	if speed != nil {
		ttsSpeed = *speed
	}

	volume, err := parseOptionalFloat32Env("SPEECH_TTS_VOLUME")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsVolume := float32(1.0)
	if volume != nil {
		ttsVolume = *volume
	}

	appID := strings.TrimSpace(os.Getenv("SPEECH_APP_ID"))
	accessToken := strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN"))

	return SpeechConfig{
		AppID:       appID,
		AccessToken: accessToken,
		Cluster:     getEnvOrDefault("SPEECH_CLUSTER", "volcano_tts"),
		Voice:       getEnvOrDefault("SPEECH_TTS_VOICE", "BV001_streaming"),
		Speed:       ttsSpeed,
		Volume:      ttsVolume,
		BaseURL:     getEnvOrDefault("SPEECH_BASE_URL", "https://openspeech.bytedance.com"),
		Timeout:     timeoutSeconds,
		Enabled:     appID != "" && accessToken != "",
	}, nil
}

// StorageConfig describes where the session collection lives on disk.
type StorageConfig struct {
	Path string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Path: getEnvOrDefault("STORAGE_PATH", "data/omnichat_sessions.json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
