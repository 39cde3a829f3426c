package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/whisperwall/whisperwall-backend/internal/config"
)

const suggestSystemPrompt = `Create a list of three open-ended and engaging questions formatted as a single string. Each question should be separated by '||'. These questions are for an anonymous social messaging platform and should be suitable for a diverse audience. Avoid personal or sensitive topics, focusing instead on universal themes that encourage friendly interaction. For example: "What's a hobby you have recently started? || If you could have dinner with any historical figure, who would it be? || What's a simple thing that makes you happy?" Ensure the questions are intriguing, foster curiosity, and contribute to a positive and welcoming conversational environment.`

// fallbackSuggestions is served when no LLM provider is configured or all
// providers fail before the stream starts.
var fallbackSuggestions = []string{
	"What's a hobby you have recently started?",
	"If you could have dinner with any historical figure, who would it be?",
	"What's a simple thing that makes you happy?",
}

// SuggestService streams conversation-starter questions from an
// OpenAI-compatible chat-completions provider.
type SuggestService struct {
	cfg    *config.Config
	client *http.Client
}

func NewSuggestService(cfg *config.Config) *SuggestService {
	timeout := cfg.AITimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SuggestService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Stream writes suggestion text to w incrementally. Providers are tried in
// order; when none can serve, the static question bank is written instead so
// the endpoint always produces usable output.
func (s *SuggestService) Stream(prompt string, w io.Writer) error {
	err := s.streamProvider(s.cfg.GLMAPIURL, s.cfg.GLMAPIKey, s.cfg.GLMModel, prompt, w)
	if err == nil {
		return nil
	}
	slog.Warn("GLM suggestion stream failed, trying DeepSeek", "error", err)

	if s.cfg.DeepSeekAPIKey != "" {
		err = s.streamProvider(s.cfg.DeepSeekAPIURL, s.cfg.DeepSeekAPIKey, s.cfg.DeepSeekModel, prompt, w)
		if err == nil {
			return nil
		}
		slog.Warn("DeepSeek suggestion stream failed", "error", err)
	}

	_, werr := io.WriteString(w, strings.Join(fallbackSuggestions, " || "))
	return werr
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (s *SuggestService) streamProvider(apiURL, apiKey, model, prompt string, w io.Writer) error {
	if apiKey == "" {
		return fmt.Errorf("API key not configured")
	}

	userPrompt := prompt
	if strings.TrimSpace(userPrompt) == "" {
		userPrompt = "Suggest three conversation-starter questions."
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.8,
		MaxTokens:   1500,
		Stream:      true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	wrote := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if _, err := io.WriteString(w, choice.Delta.Content); err != nil {
				return err
			}
			wrote = true
			if f, ok := w.(interface{ Flush() error }); ok {
				_ = f.Flush()
			}
		}
	}
	if err := scanner.Err(); err != nil && !wrote {
		return err
	}
	if !wrote {
		return fmt.Errorf("empty stream from provider")
	}
	return nil
}
