package backend

import "github.com/roach88/guff/internal/model"

// PrincipalHeader carries the caller's principal on every HTTP request.
const PrincipalHeader = "X-Guff-Principal"

// RequestIDHeader correlates a client call with the server's request log.
const RequestIDHeader = "X-Request-Id"

// MessagesResponse is the body of GET /messages.
type MessagesResponse struct {
	Messages []model.Message `json:"messages"`
}

// SendMessageRequest is the body of POST /messages.
type SendMessageRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Content     string  `json:"content"`
}

// SendMessageResponse is the body returned by POST /messages.
type SendMessageResponse struct {
	Timestamp int64 `json:"timestamp"`
}

// QuestionsResponse is the body of GET /questions.
type QuestionsResponse struct {
	Questions []model.Question `json:"questions"`
}

// CreateQuestionRequest is the body of POST /questions.
type CreateQuestionRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Content     string  `json:"content"`
}

// CreateQuestionResponse is the body returned by POST /questions.
type CreateQuestionResponse struct {
	ID model.QuestionID `json:"id"`
}

// AnswerQuestionRequest is the body of PUT /questions/{id}/answer.
type AnswerQuestionRequest struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
