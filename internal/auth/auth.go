package auth

import (
	"crypto/subtle"
	"strings"
)

const bearerPrefix = "Bearer "

// Service guards the admin panel with a single shared password. The token
// handed out on login is the password itself, so Check accepts either.
type Service struct {
	password string
}

func New(password string) *Service {
	return &Service{password: password}
}

func (s *Service) Login(password string) (string, bool) {
	if !s.Check(password) {
		return "", false
	}
	return s.password, true
}

func (s *Service) Check(token string) bool {
	if s.password == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.password)) == 1
}

// CheckHeader validates an Authorization header of the form "Bearer <token>".
func (s *Service) CheckHeader(header string) bool {
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	return s.Check(strings.TrimPrefix(header, bearerPrefix))
}
