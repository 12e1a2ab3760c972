package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "posts-admin"
	tokenLifetime = 12 * time.Hour
)

var errInvalidToken = errors.New("invalid token")

// Authenticator checks the single console admin account and issues the
// bearer tokens that guard every write endpoint.
type Authenticator struct {
	username     string
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

func NewAuthenticator(username string, passwordHash string, secret []byte) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
		secret:       secret,
		now:          time.Now,
	}
}

func (a *Authenticator) CheckPassword(username string, password string) bool {
	if username != a.username {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

func (a *Authenticator) Issue(username string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(tokenLifetime)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	return signed, expiresAt, err
}

// Verify returns the subject of a valid token.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Issuer != tokenIssuer || claims.Subject != a.username {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

func Login(auth *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if !auth.CheckPassword(req.Username, req.Password) {
			log.Printf("[Auth] Rejected login for %q", req.Username)
			http.Error(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}

		token, expiresAt, err := auth.Issue(req.Username)
		if err != nil {
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			log.Println("Login token error:", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":     token,
			"expiresAt": expiresAt.UTC(),
		})
	}
}

func RequireAdmin(auth *Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		if _, err := auth.Verify(tokenString); err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
