package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"amaltrack/auth"
	"amaltrack/config"
	"amaltrack/i18n"
	"amaltrack/models"
	"amaltrack/store"
	"amaltrack/tracker"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func sendJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func apiUsername(r *http.Request) (string, bool) {
	token := r.Header.Get("X-API-Token")
	if token == "" {
		return "", false
	}
	return auth.GetAPIUsername(token)
}

func APILoginHandler(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	if r.Method != http.MethodPost {
		sendJSONResponse(w, http.StatusMethodNotAllowed, APIResponse{Status: "error", Message: i18n.T(lang, "MethodNotAllowed")})
		return
	}

	ip := getClientIP(r)
	if !loginLimiter.Allow(ip) {
		sendJSONResponse(w, http.StatusTooManyRequests, APIResponse{Status: "error", Message: i18n.T(lang, "TooManyAttempts")})
		return
	}

	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "InvalidRequest")})
		return
	}

	users, err := store.ReadUsers()
	if err != nil {
		log.Printf("api login: reading users: %v", err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	var user models.User
	var found bool
	for _, u := range users {
		if strings.EqualFold(u.Username, input.Username) {
			user, found = u, true
			break
		}
	}

	if !found || !store.CheckPasswordHash(input.Password, user.PasswordHash) {
		loginLimiter.RecordFailure(ip)
		sendJSONResponse(w, http.StatusUnauthorized, APIResponse{Status: "error", Message: i18n.T(lang, "LoginIncorrect")})
		return
	}

	loginLimiter.Reset(ip)
	token := auth.CreateAPIToken(user.Username)
	if token == "" {
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	sendJSONResponse(w, http.StatusOK, APIResponse{Status: "ok", Data: map[string]string{
		"token": token,
		"name":  user.Name,
	}})
}

func APISignupHandler(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	if r.Method != http.MethodPost {
		sendJSONResponse(w, http.StatusMethodNotAllowed, APIResponse{Status: "error", Message: i18n.T(lang, "MethodNotAllowed")})
		return
	}

	ip := getClientIP(r)
	if !signupLimiter.Allow(ip) {
		sendJSONResponse(w, http.StatusTooManyRequests, APIResponse{Status: "error", Message: i18n.T(lang, "TooManyAttempts")})
		return
	}

	var input struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "InvalidRequest")})
		return
	}

	if input.Username == "" || len(input.Password) < minPasswordLength {
		sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "WeakPassword")})
		return
	}
	if input.Name == "" {
		input.Name = input.Username
	}

	users, err := store.ReadUsers()
	if err != nil {
		log.Printf("api signup: reading users: %v", err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	for _, u := range users {
		if strings.EqualFold(u.Username, input.Username) {
			signupLimiter.RecordFailure(ip)
			sendJSONResponse(w, http.StatusConflict, APIResponse{Status: "error", Message: i18n.T(lang, "UsernameAlreadyExists")})
			return
		}
	}

	hashedPassword, err := store.HashPassword(input.Password)
	if err != nil {
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	users = append(users, models.User{Username: input.Username, Name: input.Name, PasswordHash: hashedPassword})
	if err := store.WriteUsers(users); err != nil {
		log.Printf("api signup: writing users: %v", err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	entries, err := store.ReadEntries()
	if err == nil {
		seeded := append(entries, tracker.SeedEntries(input.Username, config.StartTime())...)
		err = store.WriteEntries(seeded)
	}
	if err != nil {
		log.Printf("api signup: seeding entries for %q: %v", input.Username, err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	signupLimiter.Reset(ip)
	sendJSONResponse(w, http.StatusCreated, APIResponse{Status: "ok", Message: i18n.T(lang, "RegistrationSuccess")})
}

// apiMatrixRow mirrors tracker.MatrixRow with JSON tags for the mobile app.
type apiMatrixRow struct {
	Category string          `json:"category"`
	Task     string          `json:"task"`
	Cells    map[string]bool `json:"cells"`
}

func APIEntriesHandler(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	username, ok := apiUsername(r)
	if !ok {
		sendJSONResponse(w, http.StatusUnauthorized, APIResponse{Status: "error", Message: i18n.T(lang, "Unauthorized")})
		return
	}

	all, err := store.ReadEntries()
	if err != nil {
		log.Printf("api entries: reading entries: %v", err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	mine := tracker.ForUser(all, username)
	if len(mine) == 0 {
		sendJSONResponse(w, http.StatusNotFound, APIResponse{Status: "error", Message: i18n.T(lang, "NoDataFound")})
		return
	}

	matrix, err := tracker.Pivot(mine)
	if err != nil {
		log.Printf("api entries: pivoting entries for %q: %v", username, err)
		sendJSONResponse(w, http.StatusConflict, APIResponse{Status: "error", Message: i18n.T(lang, "CorruptData")})
		return
	}

	rows := make([]apiMatrixRow, len(matrix.Rows))
	for i, row := range matrix.Rows {
		rows[i] = apiMatrixRow{Category: row.Category, Task: row.Task, Cells: row.Cells}
	}

	sendJSONResponse(w, http.StatusOK, APIResponse{Status: "ok", Data: map[string]any{
		"dates": matrix.Dates,
		"rows":  rows,
	}})
}

func APISaveEntriesHandler(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	username, ok := apiUsername(r)
	if !ok {
		sendJSONResponse(w, http.StatusUnauthorized, APIResponse{Status: "error", Message: i18n.T(lang, "Unauthorized")})
		return
	}

	var input struct {
		Entries []struct {
			Date     string `json:"date"`
			Category string `json:"category"`
			Task     string `json:"task"`
			Status   bool   `json:"status"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "InvalidRequest")})
		return
	}

	if len(input.Entries) == 0 {
		sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "EmptySaveRejected")})
		return
	}

	replacement := make([]models.Entry, 0, len(input.Entries))
	for _, e := range input.Entries {
		if e.Category == "" || e.Task == "" {
			sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "MalformedEdit")})
			return
		}
		if _, err := time.Parse(tracker.DateFormat, e.Date); err != nil {
			sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "MalformedEdit")})
			return
		}
		replacement = append(replacement, models.Entry{
			Username: username,
			Date:     e.Date,
			Category: e.Category,
			Task:     e.Task,
			Status:   e.Status,
		})
	}

	all, err := store.ReadEntries()
	if err != nil {
		log.Printf("api save: reading entries: %v", err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	merged, err := tracker.Reconcile(all, username, replacement)
	if err != nil {
		sendJSONResponse(w, http.StatusBadRequest, APIResponse{Status: "error", Message: i18n.T(lang, "EmptySaveRejected")})
		return
	}

	if err := store.WriteEntries(merged); err != nil {
		log.Printf("api save: writing entries: %v", err)
		sendJSONResponse(w, http.StatusInternalServerError, APIResponse{Status: "error", Message: i18n.T(lang, "StoreError")})
		return
	}

	sendJSONResponse(w, http.StatusOK, APIResponse{Status: "ok", Message: i18n.T(lang, "SavedSuccess")})
}
