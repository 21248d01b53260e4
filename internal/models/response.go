package models

import "encoding/json"

// Completion is the interpreted reply of the completion endpoint.
// Cells always holds a JSON array; it is "[]" when the model omitted it.
type Completion struct {
	Cells    json.RawMessage
	Response string
	Model    string
	// Raw is the decoded message content before interpretation
	Raw string
}

// Acknowledgment returns the assistant text to show for this completion
func (c *Completion) Acknowledgment() string {
	if c == nil || c.Response == "" {
		return DefaultAckText
	}
	return c.Response
}

// CellsJSON returns the cells array, never nil
func (c *Completion) CellsJSON() []byte {
	if c == nil || len(c.Cells) == 0 {
		return []byte("[]")
	}
	return c.Cells
}
