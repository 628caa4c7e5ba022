package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devconnector/backend/internal/models"
)

const TokenHeader = "x-auth-token"

// Caller is the verified identity of the user making a request.
type Caller struct {
	ID primitive.ObjectID
}

// AuthedHandlerFunc is a handler that runs only after the caller has been verified.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, caller Caller)

type TokenUser struct {
	ID string `json:"id"`
}

// Claims is the token payload: {"user":{"id":...}} plus the registered claims.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// NewClaims builds claims for userID that expire after ttl.
func NewClaims(userID primitive.ObjectID, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		User: TokenUser{ID: userID.Hex()},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// SignToken signs claims with HS256.
func SignToken(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(jwtSecret string) *Authenticator {
	return &Authenticator{secret: []byte(jwtSecret)}
}

// Require verifies the request token and hands the caller to next.
// Missing or invalid tokens get a 401 before next runs.
func (a *Authenticator) Require(next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			writeJSON(w, http.StatusUnauthorized, models.NewMessageResponse("No token, authorization denied"))
			return
		}

		caller, err := a.Verify(tokenString)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, models.NewMessageResponse("Token is not valid"))
			return
		}

		l := zerolog.Ctx(r.Context()).With().Str("user_id", caller.ID.Hex()).Logger()
		next(w, r.WithContext(l.WithContext(r.Context())), caller)
	}
}

// Verify parses an HS256 token and returns the caller it names.
func (a *Authenticator) Verify(tokenString string) (Caller, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Caller{}, err
	}

	id, err := primitive.ObjectIDFromHex(claims.User.ID)
	if err != nil {
		return Caller{}, err
	}
	return Caller{ID: id}, nil
}

func extractToken(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(TokenHeader)); tok != "" {
		return tok
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
