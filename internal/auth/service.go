package auth

import (
	"fmt"
	"sync"
	"time"
)

// Service handles authentication operations for the single operator account.
// Refresh-token sessions live in memory; restarting the process invalidates
// them, which is acceptable for a single-operator deployment.
type Service struct {
	jwtManager   *JWTManager
	username     string
	passwordHash string
	config       Config

	mu       sync.Mutex
	sessions map[string]time.Time // hashed refresh token -> expiry
}

// NewService creates a new authentication service
func NewService(config Config) (*Service, error) {
	config = config.withDefaults()

	if config.JWTSecret == "" {
		return nil, fmt.Errorf("auth: jwt secret is required")
	}
	if config.Username == "" {
		return nil, fmt.Errorf("auth: operator username is required")
	}

	hash := config.PasswordHash
	if hash == "" {
		if config.Password == "" {
			return nil, fmt.Errorf("auth: operator password or password hash is required")
		}
		if err := ValidatePasswordStrength(config.Password); err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		h, err := HashPassword(config.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	return &Service{
		jwtManager:   NewJWTManager(config.JWTSecret, config.AccessTokenDuration, config.RefreshTokenDuration),
		username:     config.Username,
		passwordHash: hash,
		config:       config,
		sessions:     make(map[string]time.Time),
	}, nil
}

// GetJWTManager returns the JWT manager for use in middleware
func (s *Service) GetJWTManager() *JWTManager {
	return s.jwtManager
}

// Login verifies the operator credentials and issues a token pair
func (s *Service) Login(req LoginRequest) (*TokenPair, error) {
	if req.Username != s.username || !VerifyPassword(req.Password, s.passwordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwtManager.GenerateTokenPair(OperatorClaims{Username: s.username})
	if err != nil {
		return nil, err
	}

	s.storeSession(pair.RefreshToken)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// refresh token is consumed whether or not issuing the new pair succeeds.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	key := HashRefreshToken(refreshToken)

	s.mu.Lock()
	expiry, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	if !ok || time.Now().After(expiry) {
		return nil, ErrInvalidToken
	}

	pair, err := s.jwtManager.GenerateTokenPair(OperatorClaims{Username: s.username})
	if err != nil {
		return nil, err
	}

	s.storeSession(pair.RefreshToken)
	return pair, nil
}

// Logout revokes a refresh token
func (s *Service) Logout(refreshToken string) {
	s.mu.Lock()
	delete(s.sessions, HashRefreshToken(refreshToken))
	s.mu.Unlock()
}

// LogoutAll revokes every active session
func (s *Service) LogoutAll() {
	s.mu.Lock()
	s.sessions = make(map[string]time.Time)
	s.mu.Unlock()
}

// ValidateAccessToken validates an access token and returns the claims
func (s *Service) ValidateAccessToken(token string) (*OperatorClaims, error) {
	return s.jwtManager.ValidateAccessToken(token)
}

// SessionCount returns the number of live refresh-token sessions
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) storeSession(refreshToken string) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop expired sessions first
	for key, expiry := range s.sessions {
		if now.After(expiry) {
			delete(s.sessions, key)
		}
	}

	// Evict the oldest session when at capacity
	if len(s.sessions) >= s.config.MaxSessions {
		var oldestKey string
		var oldestExpiry time.Time
		for key, expiry := range s.sessions {
			if oldestKey == "" || expiry.Before(oldestExpiry) {
				oldestKey = key
				oldestExpiry = expiry
			}
		}
		delete(s.sessions, oldestKey)
	}

	s.sessions[HashRefreshToken(refreshToken)] = now.Add(s.jwtManager.GetRefreshTokenDuration())
}
