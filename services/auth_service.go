package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"chat-client/models"
	"chat-client/repository"
)

// AuthService talks to the server's /login and /signup endpoints. A
// successful login stores the returned token in the credential repository;
// the messaging core only ever reads it from there.
type AuthService struct {
	baseURL string
	client  *http.Client
	creds   repository.CredentialRepository
	log     *zap.Logger
}

func NewAuthService(baseURL string, creds repository.CredentialRepository, log *zap.Logger) *AuthService {
	return &AuthService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		creds:   creds,
		log:     log,
	}
}

type authRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (s *AuthService) Login(ctx context.Context, userID, password string) error {
	if userID == "" || password == "" {
		return fmt.Errorf("user id and password are required")
	}

	body, err := s.post(ctx, "/login", authRequest{UserID: userID, Password: password})
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		return fmt.Errorf("login response had no token")
	}

	if err := s.creds.Set(models.Credential{UserID: userID, Token: resp.Token}); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	s.log.Info("logged in", zap.String("user", userID))
	return nil
}

func (s *AuthService) Signup(ctx context.Context, userID, password string) error {
	if userID == "" || password == "" {
		return fmt.Errorf("user id and password are required")
	}
	if _, err := s.post(ctx, "/signup", authRequest{UserID: userID, Password: password}); err != nil {
		return err
	}
	s.log.Info("signed up", zap.String("user", userID))
	return nil
}

// Logout drops the stored credential. The server keeps no session state to
// invalidate.
func (s *AuthService) Logout() error {
	return s.creds.Clear()
}

// post sends JSON and returns the response body. Non-2xx responses surface
// the server's plain-text error ("User not found", "Invalid password", ...)
// verbatim.
func (s *AuthService) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return body, nil
}
