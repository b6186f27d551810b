package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/guff/internal/model"
)

// HTTPClient implements Client over the REST API served by internal/server.
type HTTPClient struct {
	BaseURL    string
	Principal  model.Principal
	HTTPClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for baseURL acting as principal.
func NewHTTPClient(baseURL string, principal model.Principal) *HTTPClient {
	return &HTTPClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Principal:  principal,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// doRequest performs one HTTP call. Any failure is returned as a *CallError.
func (c *HTTPClient) doRequest(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &CallError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.Must(uuid.NewV7()).String())
	if !c.Principal.IsAnonymous() {
		req.Header.Set(PrincipalHeader, string(c.Principal))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &CallError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CallError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		return &CallError{Op: op, Status: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &CallError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func pagePath(base string, limit, offset int) string {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	return base + "?" + q.Encode()
}

// GetMessages lists chat messages.
func (c *HTTPClient) GetMessages(ctx context.Context, limit, offset int) ([]model.Message, error) {
	var resp MessagesResponse
	if err := c.doRequest(ctx, "getMessages", http.MethodGet, pagePath("/messages", limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a chat message.
func (c *HTTPClient) SendMessage(ctx context.Context, displayName *string, content string) error {
	req := SendMessageRequest{DisplayName: displayName, Content: content}
	return c.doRequest(ctx, "sendMessage", http.MethodPost, "/messages", req, nil)
}

// GetQuestions lists the caller's questions.
func (c *HTTPClient) GetQuestions(ctx context.Context, limit, offset int) ([]model.Question, error) {
	var resp QuestionsResponse
	if err := c.doRequest(ctx, "getQuestions", http.MethodGet, pagePath("/questions", limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// CreateQuestion stores a new question and returns its ID.
func (c *HTTPClient) CreateQuestion(ctx context.Context, displayName *string, content string) (model.QuestionID, error) {
	req := CreateQuestionRequest{DisplayName: displayName, Content: content}
	var resp CreateQuestionResponse
	if err := c.doRequest(ctx, "createQuestion", http.MethodPost, "/questions", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// AnswerQuestion sets the answer of one of the caller's questions.
func (c *HTTPClient) AnswerQuestion(ctx context.Context, id model.QuestionID, answer string) error {
	path := fmt.Sprintf("/questions/%d/answer", id)
	return c.doRequest(ctx, "answerQuestion", http.MethodPut, path, AnswerQuestionRequest{Answer: answer}, nil)
}

// GetCallerUserProfile returns the caller's profile, or nil if none is saved.
func (c *HTTPClient) GetCallerUserProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	err := c.doRequest(ctx, "getCallerUserProfile", http.MethodGet, "/profile", nil, &p)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveCallerUserProfile stores the caller's profile.
func (c *HTTPClient) SaveCallerUserProfile(ctx context.Context, p model.Profile) error {
	return c.doRequest(ctx, "saveCallerUserProfile", http.MethodPut, "/profile", p, nil)
}
