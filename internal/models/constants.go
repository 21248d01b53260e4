// Package models contains data types and constants for the cell chat client.
package models

// Endpoints for the completion API
const (
	EndpointGroqChat = "https://api.groq.com/openai/v1/chat/completions"
)

// Generation defaults
const (
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultMaxTokens   = 8192
	DefaultTemperature = 0.0
	DefaultTopP        = 1.0
)

// Canned assistant texts
const (
	WelcomeText = "Welcome! I'm an AI assistant that can create visual cells based on your requests. " +
		"You can ask me to create text-based cells or colored cells. For example, try asking " +
		"'Create 3 cells explaining the water cycle' or 'Make a color palette with 5 pastel colors'. " +
		"What would you like to create?"
	DefaultAckText = "Here are the generated cells based on your request."
	ErrorText      = "Sorry, there was an error processing your request."
)

// SystemPrompt describes the cell schema the model must answer with
const SystemPrompt = "Your job is to create cells in JSON. When you create multiple cells, as an array, " +
	"they are for the purpose of displaying information in an easy to understand, and logical way. " +
	"You can think of these cells as pages in a book, frames in a story, or slides in a deck. " +
	"Keep in mind that you may only need one cell for simple tasks, and that some cases will require " +
	"more consistent elements across cells.\n" +
	"Each cell can either contain text or be colored. Text cells are defined with caption and content " +
	"for each instance of text. Colored cells are defined with an RGB color value.\n" +
	"{\"text\": [ { \"caption\": \"X\", \"content\": \"X\" } ]}\n" +
	"or\n" +
	"{\"color\": \"rgb(x, x, x)\"}\n\n" +
	"Text can contain any description of text. Whatever is fitting for the use case. \n" +
	"Whatever the user asks for must be translated into visual cells. Each cell must start with cell_X " +
	"starting with cell_0. Cells are wrapped in an array called \"cells\". Additionally, each cell should " +
	"include a 'size' property that defines its width and height as a fraction of the container. " +
	"For example, 'size': { 'width': '1/2', 'height': '1/3' } would make the cell half the width of the " +
	"container and one-third the height. You may add a short natural-language reply in a top-level " +
	"\"response\" string. Take a break and generate in JSON"

// DefaultHeaders returns the default headers for completion requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "cellchat/0.1",
	}
}
