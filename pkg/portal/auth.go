package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Credentials is the login and registration payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token and persists it.
func (s *Service) Login(ctx context.Context, c Credentials) (string, error) {
	c.Email = strings.TrimSpace(c.Email)
	if err := s.check(c); err != nil {
		return "", err
	}

	resp, err := s.client.Do(ctx, jsonPost(s.endpoints.api(s.endpoints.Login), c))
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	var out loginResponse
	if err := s.expect("login", resp, &out, http.StatusOK); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login: response carried no token")
	}

	if s.creds != nil {
		if err := s.creds.Save(ctx, out.Token); err != nil {
			return "", fmt.Errorf("store credential: %w", err)
		}
	}
	s.log.InfoObj("login succeeded", "auth", map[string]any{"email": c.Email})
	return out.Token, nil
}

// Register creates an account. The portal answers 201 on success.
func (s *Service) Register(ctx context.Context, c Credentials) error {
	c.Email = strings.TrimSpace(c.Email)
	if err := s.check(c); err != nil {
		return err
	}

	resp, err := s.client.Do(ctx, jsonPost(s.endpoints.api(s.endpoints.Register), c))
	if err != nil {
		return fmt.Errorf("register request: %w", err)
	}
	if err := s.expect("register", resp, nil, http.StatusCreated); err != nil {
		return err
	}
	s.log.InfoObj("registration succeeded", "auth", map[string]any{"email": c.Email})
	return nil
}

// Logout drops the stored credential.
func (s *Service) Logout(ctx context.Context) error {
	if s.creds == nil {
		return nil
	}
	if err := s.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
