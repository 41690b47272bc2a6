package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"portal/config"
	"portal/internal/logger"
	. "portal/internal/models"

	"golang.org/x/crypto/bcrypt"
)

const (
	ACCESS_TOKEN_BYTES  = 24
	PUBLIC_CUSTOMER_URL = "/public/customer"
)

var accessTokenShape = regexp.MustCompile(`^[a-zA-Z0-9\-_]{10,}$`)

// IsValidAccessTokenShape is the cheap syntactic gate applied before any lookup.
func IsValidAccessTokenShape(token string) bool {
	return accessTokenShape.MatchString(token)
}

type AccessTokenService struct {
	publicBaseURL string
	cost          int
	log           logger.Logger
}

func NewAccessTokenService(config config.Config) *AccessTokenService {
	return &AccessTokenService{
		publicBaseURL: strings.TrimRight(config.PublicBaseURL, "/"),
		cost:          bcrypt.DefaultCost,
		log:           logger.New("AccessTokenService"),
	}
}

// WithCost overrides the bcrypt cost, tests use bcrypt.MinCost.
func (s *AccessTokenService) WithCost(cost int) *AccessTokenService {
	s.cost = cost
	return s
}

// Generate returns a new token and the hash to store for it.
func (s *AccessTokenService) Generate() (token, hash string, err error) {
	log := s.log.Function("Generate")

	buf := make([]byte, ACCESS_TOKEN_BYTES)
	if _, err := rand.Read(buf); err != nil {
		return "", "", log.Err("failed to read random bytes", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)

	hashed, err := bcrypt.GenerateFromPassword([]byte(token), s.cost)
	if err != nil {
		return "", "", log.Err("failed to hash access token", err)
	}

	return token, string(hashed), nil
}

// Verify checks token against a stored hash. An empty hash means no link was
// ever issued for the customer.
func (s *AccessTokenService) Verify(hash, token string) error {
	if !IsValidAccessTokenShape(token) || hash == "" {
		return ErrInvalidAccessToken
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidAccessToken
	}
	if err != nil {
		return s.log.Function("Verify").Err("failed to compare access token", err)
	}

	return nil
}

func (s *AccessTokenService) Link(customerID, token string) PublicLink {
	path := fmt.Sprintf("%s/%s/%s", PUBLIC_CUSTOMER_URL, url.PathEscape(customerID), token)
	return PublicLink{
		CustomerID:  customerID,
		AccessToken: token,
		Path:        path,
		URL:         s.publicBaseURL + path,
	}
}
