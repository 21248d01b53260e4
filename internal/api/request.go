package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	"github.com/diogo/cellchat/internal/models"
)

// maxResponseBytes caps how much of a reply is read into memory
const maxResponseBytes = 4 << 20

type responseFormat struct {
	Type string `json:"type"`
}

// chatRequest is the OpenAI-compatible request body
type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []models.Message `json:"messages"`
	Temperature    float64          `json:"temperature"`
	MaxTokens      int              `json:"max_tokens"`
	TopP           float64          `json:"top_p"`
	Stream         bool             `json:"stream"`
	ResponseFormat responseFormat   `json:"response_format"`
	Stop           []string         `json:"stop"`
}

// buildRequest lays out the messages as system prompt, history, then the
// new user turn
func (c *Client) buildRequest(history []models.Message, message string) ([]byte, error) {
	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: models.SystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, models.UserMessage(message))

	return json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		TopP:           models.DefaultTopP,
		Stream:         false,
		ResponseFormat: responseFormat{Type: "json_object"},
		Stop:           nil,
	})
}

func readBody(resp *http.Response, limit int64) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// errorMessage pulls a readable message out of an error reply
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, PathErrMessage); msg.Type == gjson.String && msg.String() != "" {
			return msg.String()
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response body"
	}
	if runes := []rune(text); len(runes) > 200 {
		text = string(runes[:200]) + "..."
	}
	return text
}
