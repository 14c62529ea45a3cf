package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenLifetime  = 7 * 24 * time.Hour
	bcryptCost     = 12
	minPasswordLen = 4
	minUsernameLen = 2
	maxUsernameLen = 16

	loginWindow      = time.Minute
	maxLoginAttempts = 10
)

var (
	errBadCredentials = errors.New("invalid username or password")
	errUsernameTaken  = errors.New("username already taken")
	errLoginThrottled = errors.New("too many login attempts, try again later")
)

// soccerClaims is the token payload. Subject carries the account ID so a
// reconnecting client can be tied back to its soccer stats row without a
// database hit.
type soccerClaims struct {
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Auth issues and verifies the bearer tokens that gate every gameplay
// message, and owns account creation for both registered players and
// lobby guests.
type Auth struct {
	db      *DB
	log     zerolog.Logger
	secret  []byte
	limiter loginLimiter
}

// NewAuth creates the authenticator. An operator-configured secret wins;
// otherwise one is minted once and kept in the settings table so tokens
// survive restarts.
func NewAuth(db *DB, configured string, log zerolog.Logger) *Auth {
	return &Auth{
		db:      db,
		log:     log,
		secret:  resolveSecret(db, configured, log),
		limiter: loginLimiter{byIP: make(map[string][]time.Time)},
	}
}

// resolveSecret prefers the configured secret, then the persisted one, and
// mints a fresh 32-byte secret as the last resort.
func resolveSecret(db *DB, configured string, log zerolog.Logger) []byte {
	if configured != "" {
		return []byte(configured)
	}
	if db != nil {
		stored := db.GetSetting("jwt_secret")
		if b, err := base64.RawStdEncoding.DecodeString(stored); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", base64.RawStdEncoding.EncodeToString(secret)); err != nil {
			log.Warn().Err(err).Msg("could not persist JWT secret")
		}
	}
	return secret
}

// validUsername allows the names the scoreboard can render: letters, digits
// and underscores within the length bounds.
func validUsername(name string) bool {
	if len(name) < minUsernameLen || len(name) > maxUsernameLen {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Register creates an account. The soccer stats row is deliberately NOT
// created here: a fresh account joins with a null stats payload so the
// client prompts for the 15-point split.
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)
	if !validUsername(username) {
		return 0, "", fmt.Errorf("username must be %d-%d letters, digits or underscores", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	taken, err := a.db.UsernameExists(username)
	if err != nil {
		return 0, "", fmt.Errorf("database error")
	}
	if taken {
		return 0, "", errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create account")
	}

	token, err := a.issueToken(id, username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return id, token, nil
}

// Login verifies a password and returns a fresh token. Failed and
// successful attempts both count against the per-IP window.
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.limiter.allow(ip, time.Now()) {
		a.log.Warn().Str("ip", ip).Msg("login throttled")
		return 0, "", errLoginThrottled
	}

	account, err := a.db.GetPlayerByUsername(username)
	if err != nil {
		return 0, "", fmt.Errorf("database error")
	}
	if account == nil || account.PassHash == "" {
		return 0, "", errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PassHash), []byte(password)) != nil {
		return 0, "", errBadCredentials
	}

	token, err := a.issueToken(account.ID, account.Username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return account.ID, token, nil
}

// Guest mints a throwaway account so a player can kick a ball around
// without registering. Guests hold stats and play matches but never appear
// on the leaderboard.
func (a *Auth) Guest() (int64, string, string, error) {
	suffix := make([]byte, 3)
	rand.Read(suffix)
	username := "Guest_" + hex.EncodeToString(suffix)

	id, err := a.db.CreateGuest(username)
	if err != nil {
		return 0, "", "", fmt.Errorf("failed to create guest")
	}
	token, err := a.issueToken(id, username)
	if err != nil {
		return 0, "", "", fmt.Errorf("internal error")
	}
	return id, username, token, nil
}

// issueToken signs a soccerClaims token for the account.
func (a *Auth) issueToken(userID int64, username string) (string, error) {
	now := time.Now()
	claims := soccerClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken checks a bearer token and returns the account it names.
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	var claims soccerClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, "", err
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, "", fmt.Errorf("invalid token subject")
	}
	if claims.Username == "" {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	return userID, claims.Username, nil
}

// loginLimiter is a sliding-window counter of login attempts per IP.
type loginLimiter struct {
	mu   sync.Mutex
	byIP map[string][]time.Time
}

// allow records an attempt and reports whether it is within the window
// budget. Expired attempts are pruned as a side effect, so the map stays
// bounded by live traffic.
func (l *loginLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-loginWindow)
	kept := l.byIP[ip][:0]
	for _, at := range l.byIP[ip] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) >= maxLoginAttempts {
		l.byIP[ip] = kept
		return false
	}
	l.byIP[ip] = append(kept, now)
	return true
}
