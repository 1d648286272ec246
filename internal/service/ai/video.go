package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/omnichat/backend/internal/model/chat"
)

// maxVideoPolls bounds the job wait so a task that never reaches a terminal
// state still fails instead of spinning forever.
const maxVideoPolls = 60

type videoTaskRequest struct {
	Model   string             `json:"model"`
	Content []videoTaskContent `json:"content"`
}

type videoTaskContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type videoTaskResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Content struct {
		VideoURL string `json:"video_url"`
	} `json:"content"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateVideo creates a video generation task and polls it at a fixed
// interval until it reaches a terminal state, resolving with a playable
// reference.
func (s *Service) GenerateVideo(ctx context.Context, prompt string) (*chat.Attachment, error) {
	if !s.cfg.Enabled() {
		return nil, fmt.Errorf("%w: ARK_API_KEY is missing", ErrNotInitialized)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", ErrMediaJob)
	}

	taskID, err := s.createVideoTask(ctx, prompt)
	if err != nil {
		return nil, err
	}
	log.Printf("[ai] video task created, id=%s", taskID)

	for polls := 0; polls < maxVideoPolls; polls++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrMediaJob, ctx.Err())
		case <-time.After(s.cfg.VideoPoll):
		}

		task, err := s.getVideoTask(ctx, taskID)
		if err != nil {
			return nil, err
		}

		switch task.Status {
		case "queued", "running":
			continue
		case "succeeded":
			if task.Content.VideoURL == "" {
				return nil, fmt.Errorf("%w: task %s succeeded with no output", ErrMediaJob, taskID)
			}
			return &chat.Attachment{
				Kind:     chat.AttachmentVideo,
				URL:      task.Content.VideoURL,
				MIMEType: "video/mp4",
			}, nil
		default:
			return nil, fmt.Errorf("%w: task %s ended as %s: %s", ErrMediaJob, taskID, task.Status, task.Error.Message)
		}
	}

	return nil, fmt.Errorf("%w: task %s never reached a terminal state", ErrMediaJob, taskID)
}

func (s *Service) createVideoTask(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(videoTaskRequest{
		Model:   s.cfg.VideoModel,
		Content: []videoTaskContent{{Type: "text", Text: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal task request: %v", ErrMediaJob, err)
	}

	url := s.cfg.BaseURL + "/contents/generations/tasks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaJob, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	task, err := s.doVideoRequest(req)
	if err != nil {
		return "", err
	}
	if task.ID == "" {
		return "", fmt.Errorf("%w: create task returned no id", ErrMediaJob)
	}
	return task.ID, nil
}

func (s *Service) getVideoTask(ctx context.Context, taskID string) (*videoTaskResponse, error) {
	url := s.cfg.BaseURL + "/contents/generations/tasks/" + taskID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaJob, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	return s.doVideoRequest(req)
}

func (s *Service) doVideoRequest(req *http.Request) (*videoTaskResponse, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaJob, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrMediaJob, err)
	}

	var task videoTaskResponse
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMediaJob, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrMediaJob, resp.StatusCode, task.Error.Message)
	}
	return &task, nil
}
