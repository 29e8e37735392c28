package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/ident"
)

// Task is a single task as served by the backend. Timestamps and the due date
// are service-defined fields carried through opaquely.
type Task struct {
	ID          ident.ID        `json:"id"`
	UserID      ident.ID        `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Completed   bool            `json:"completed"`
	CreatedAt   json.RawMessage `json:"created_at,omitempty"`
	UpdatedAt   json.RawMessage `json:"updated_at,omitempty"`
	DueDate     json.RawMessage `json:"due_date,omitempty"`
}

// LoginResponse is the user object returned by POST /login. The identifier is
// kept raw so the session layer can judge usability before normalizing.
type LoginResponse struct {
	ID    json.RawMessage `json:"id"`
	Email string          `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Login authenticates with the service and returns the raw user object.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload, err := c.Request(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var user LoginResponse
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	return &user, nil
}

// ListTodos fetches the full task collection at basePath. A non-array payload
// yields an empty collection.
func (c *Client) ListTodos(ctx context.Context, basePath string) ([]Task, error) {
	payload, err := c.Request(ctx, http.MethodGet, basePath+"/", nil)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	if err := json.Unmarshal(payload, &tasks); err != nil {
		return nil, nil
	}
	return tasks, nil
}

// CreateTodo creates a task with the given title and description.
func (c *Client) CreateTodo(ctx context.Context, basePath, title, description string) (*Task, error) {
	payload, err := c.Request(ctx, http.MethodPost, basePath+"/", createTodoRequest{Title: title, Description: description})
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("decoding created task: %w", err)
	}
	return &task, nil
}

// ToggleTodo flips a task's completion state on the backend.
func (c *Client) ToggleTodo(ctx context.Context, basePath string, id ident.ID) error {
	_, err := c.Request(ctx, http.MethodPatch, fmt.Sprintf("%s/%s/toggle", basePath, id), nil)
	return err
}

// DeleteTodo removes a task on the backend.
func (c *Client) DeleteTodo(ctx context.Context, basePath string, id ident.ID) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("%s/%s", basePath, id), nil)
	return err
}
