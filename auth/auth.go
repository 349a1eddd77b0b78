package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"amaltrack/config"
	"amaltrack/store"
)

var Store *sessions.CookieStore

func InitStore() {
	// Derive two 32-byte keys from the session key to ensure secure encryption
	// Auth key for signing (HMAC)
	authKey := sha256.Sum256([]byte(config.AppConfig.SessionKey + "auth"))
	// Encryption key for content encryption (AES)
	encKey := sha256.Sum256([]byte(config.AppConfig.SessionKey + "encryption"))

	Store = sessions.NewCookieStore(authKey[:], encKey[:])

	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // the whole tracked month
		HttpOnly: true,
		Secure:   config.AppConfig.ListenPort != 8080, // Default to true unless dev port
		SameSite: http.SameSiteLaxMode,
	}
}

const SessionName = "amaltrack-session"

// CurrentUser returns the logged-in username and display name, or empty
// strings for an anonymous session.
func CurrentUser(r *http.Request) (username, name string) {
	session, _ := Store.Get(r, SessionName)
	if u, ok := session.Values["username"].(string); ok {
		username = u
	}
	if n, ok := session.Values["name"].(string); ok {
		name = n
	}
	return username, name
}

func SetSession(w http.ResponseWriter, r *http.Request, username, name string) {
	session, _ := Store.Get(r, SessionName)
	session.Values["username"] = username
	session.Values["name"] = name
	session.Save(r, w)
}

func ClearSession(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, SessionName)
	session.Options.MaxAge = -1
	session.Save(r, w)
}

// Token-based auth for the JSON API (persistent across restarts).

func CreateAPIToken(username string) string {
	token := generateRandomToken(32)

	_, err := store.DB.Exec("INSERT INTO api_sessions (token, username) VALUES (?, ?)", token, username)
	if err != nil {
		fmt.Printf("Error creating API token in DB: %v\n", err)
		return ""
	}

	return token
}

// GetAPIUsername resolves an API token to its username.
func GetAPIUsername(token string) (string, bool) {
	var username string
	err := store.DB.QueryRow("SELECT username FROM api_sessions WHERE token = ?", token).Scan(&username)
	if err != nil {
		return "", false
	}
	return username, true
}

func generateRandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// If we can't generate random numbers, the system is in a critical state.
		// Panic is appropriate here as we cannot securely continue.
		panic(fmt.Sprintf("critical security error: failed to generate random token: %v", err))
	}
	return base64.URLEncoding.EncodeToString(b)
}
