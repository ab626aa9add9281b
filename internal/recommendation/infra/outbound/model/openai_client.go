package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

// OpenAIClient llama a un endpoint de chat-completions compatible con OpenAI.
// Stateless: no guarda nada entre llamadas.
type OpenAIClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(apiURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatCompletionRequest struct {
	Model       string                   `json:"model"`
	Messages    []recoDomain.ChatMessage `json:"messages"`
	Temperature float64                  `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, transcript []recoDomain.ChatMessage, prompt string) (string, error) {
	if len(transcript) == 0 || prompt == "" {
		return "", fmt.Errorf("%w: empty transcript or prompt", recoDomain.ErrExtractionFailed)
	}

	messages := make([]recoDomain.ChatMessage, 0, len(transcript)+1)
	messages = append(messages, transcript...)
	messages = append(messages, recoDomain.ChatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", recoDomain.ErrExtractionFailed, resp.StatusCode)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", recoDomain.ErrExtractionFailed)
	}
	return out.Choices[0].Message.Content, nil
}

// Verificación en tiempo de compilación.
var _ recoDomain.Completer = (*OpenAIClient)(nil)
