package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/cellchat/internal/errors"
	"github.com/diogo/cellchat/internal/models"
)

// parseCompletion decodes the reply in two stages: the envelope, then the
// JSON document carried as a string in the first choice's content
func parseCompletion(body []byte) (*models.Completion, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response body is not valid JSON", "")
	}

	envelope := gjson.ParseBytes(body)
	if msg := envelope.Get(PathErrMessage); msg.Exists() {
		return nil, apierrors.NewParseError(fmt.Sprintf("endpoint reported an error: %s", msg.String()), PathErrMessage)
	}

	content := envelope.Get(PathContent)
	if !content.Exists() || content.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %w", apierrors.ErrNoContent, apierrors.NewParseError("missing message content", PathContent))
	}
	if content.Type != gjson.String {
		return nil, apierrors.NewParseError("message content is not a string", PathContent)
	}

	if reason := envelope.Get(PathFinish).String(); reason == "length" {
		log.Warn().Msg("completion stopped at the token limit, content may be truncated")
	}

	raw := stripCodeFence(content.String())
	if !gjson.Valid(raw) {
		return nil, apierrors.NewParseError("message content is not valid JSON", PathContent)
	}

	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, apierrors.NewParseError("message content is not a JSON object", PathContent)
	}

	completion := &models.Completion{
		Cells: json.RawMessage("[]"),
		Model: envelope.Get(PathModel).String(),
		Raw:   raw,
	}

	if cells := doc.Get(PathCells); cells.Exists() && cells.Type != gjson.Null {
		if !cells.IsArray() {
			return nil, apierrors.NewParseError("cells is not an array", PathContent+"."+PathCells)
		}
		completion.Cells = json.RawMessage(cells.Raw)
	}

	if resp := doc.Get(PathResponse); resp.Type == gjson.String {
		completion.Response = strings.TrimSpace(resp.String())
	}

	return completion, nil
}

// stripCodeFence removes a ```json fence some models put around the
// document even in JSON mode
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
