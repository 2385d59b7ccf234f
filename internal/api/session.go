package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/npezzotti/polyglot-chat/internal/types"
)

const (
	sessionCookieKey         = "session"
	defaultSessionExpiration = time.Hour * 24
)

type contextKey string

const sessionKey contextKey = "session"

type sessionClaims struct {
	Room     string `json:"room"`
	Name     string `json:"name"`
	Language string `json:"language"`
	jwt.StandardClaims
}

func WithSession(ctx context.Context, sess types.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func SessionFrom(ctx context.Context) (types.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(types.Session)
	return sess, ok
}

func (s *ChatApp) createSessionToken(sess types.Session, exp time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Room:     sess.Room,
		Name:     sess.Name,
		Language: sess.Language,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(exp).Unix(),
		},
	})

	return token.SignedString(s.signingKey)
}

func (s *ChatApp) parseSessionToken(tokenString string) (types.Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return types.Session{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return types.Session{}, errors.New("invalid token")
	}

	if claims.Room == "" || claims.Name == "" {
		return types.Session{}, errors.New("incomplete session")
	}

	return types.Session{
		Room:     claims.Room,
		Name:     claims.Name,
		Language: claims.Language,
	}, nil
}

func (s *ChatApp) sessionFromRequest(r *http.Request) (types.Session, error) {
	cookie, err := r.Cookie(sessionCookieKey)
	if err != nil {
		return types.Session{}, fmt.Errorf("get cookie: %w", err)
	}

	return s.parseSessionToken(cookie.Value)
}

func createSessionCookie(tokenString string, exp time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieKey,
		Value:    tokenString,
		Path:     "/",
		Expires:  time.Now().Add(exp),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// clearSessionCookie instructs the browser to drop the session.
func clearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieKey,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
