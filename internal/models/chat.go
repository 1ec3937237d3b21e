package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn represents a single message in an interactive conversation.
type ChatTurn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// AskRequest is the JSON payload accepted by the ask endpoint when no files are uploaded.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the answer returned by the ask endpoint.
type AskResponse struct {
	Response string `json:"response"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
