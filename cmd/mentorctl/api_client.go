package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	FirstName *string    `json:"firstName,omitempty"`
	LastName  *string    `json:"lastName,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type LoginResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CurrentUser struct {
	User
	TotalExercises     int   `json:"totalExercises"`
	CompletedExercises int   `json:"completedExercises"`
	CurrentStreak      int   `json:"currentStreak"`
	TotalTimeSpent     int64 `json:"totalTimeSpent"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
	User  User `json:"user"`
}

type ExplainResponse struct {
	Explanation   string `json:"explanation"`
	Authenticated bool   `json:"authenticated"`
}

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
}

func (c *APIClient) Register(email, username, password string) (*User, error) {
	body := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}

	var result RegisterResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *APIClient) Login(email, password string) (*LoginResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result LoginResponse
	if err := c.do(http.MethodPost, "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Me(token string) (*CurrentUser, error) {
	var result CurrentUser
	if err := c.do(http.MethodGet, "/auth/me", nil, token, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Verify(token string) (*VerifyResponse, error) {
	var result VerifyResponse
	if err := c.do(http.MethodGet, "/auth/verify", nil, token, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProfile sends only the fields present in fields.
func (c *APIClient) UpdateProfile(token string, fields map[string]string) (*User, error) {
	var result User
	if err := c.do(http.MethodPut, "/auth/profile", fields, token, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Explain(token, code, language string) (*ExplainResponse, error) {
	body := map[string]string{
		"code":     code,
		"language": language,
	}

	var result ExplainResponse
	if err := c.do(http.MethodPost, "/ai/explain", body, token, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) do(method, path string, body any, token string, wantStatus int, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errBody struct {
			Error string `json:"error"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &errBody) != nil || errBody.Error == "" {
			errBody.Error = strings.TrimSpace(string(bodyBytes))
		}
		return &APIError{Status: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
