package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

// SelfHostedClient llama al modelo auto-alojado de respaldo, que recibe
// {prompt, messages} y devuelve el resumen como cuerpo de texto plano.
type SelfHostedClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewSelfHostedClient(apiURL, apiKey string, timeout time.Duration) *SelfHostedClient {
	return &SelfHostedClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type selfHostedRequest struct {
	Prompt   string                   `json:"prompt"`
	Messages []recoDomain.ChatMessage `json:"messages"`
}

func (c *SelfHostedClient) Complete(ctx context.Context, transcript []recoDomain.ChatMessage, prompt string) (string, error) {
	if len(transcript) == 0 || prompt == "" {
		return "", fmt.Errorf("%w: empty transcript or prompt", recoDomain.ErrExtractionFailed)
	}

	body, err := json.Marshal(selfHostedRequest{Prompt: prompt, Messages: transcript})
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

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", recoDomain.ErrExtractionFailed, err)
	}
	summary := strings.TrimSpace(string(raw))
	if summary == "" {
		return "", fmt.Errorf("%w: empty completion", recoDomain.ErrExtractionFailed)
	}
	return summary, nil
}

// Verificación en tiempo de compilación.
var _ recoDomain.Completer = (*SelfHostedClient)(nil)
