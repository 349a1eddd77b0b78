package handlers

import (
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/dchest/captcha"
	"github.com/gorilla/csrf"

	"amaltrack/auth"
	"amaltrack/config"
	"amaltrack/i18n"
	"amaltrack/models"
	"amaltrack/store"
	"amaltrack/tracker"
)

const minPasswordLength = 8

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", IndexHandler)
	mux.HandleFunc("/login", LoginHandler)
	mux.HandleFunc("/signup", SignupHandler)
	mux.HandleFunc("/logout", LogoutHandler)
	mux.HandleFunc("/tracker", TrackerHandler)
	mux.HandleFunc("/tracker/save", SaveHandler)

	// Mobile API endpoints (JSON)
	mux.HandleFunc("/api/v1/login", APILoginHandler)
	mux.HandleFunc("/api/v1/signup", APISignupHandler)
	mux.HandleFunc("/api/v1/entries", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			APIEntriesHandler(w, r)
		case http.MethodPut:
			APISaveEntriesHandler(w, r)
		default:
			sendJSONResponse(w, http.StatusMethodNotAllowed, APIResponse{Status: "error", Message: "Method not allowed"})
		}
	})
}

func IndexHandler(w http.ResponseWriter, r *http.Request) {
	if username, _ := auth.CurrentUser(r); username != "" {
		http.Redirect(w, r, "/tracker", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "index.html", map[string]any{"AppName": config.AppConfig.AppName})
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		lang := i18n.DetectLanguage(r)
		ip := getClientIP(r)
		if !loginLimiter.Allow(ip) {
			w.Header().Set("HX-Retarget", "#error-message")
			w.Write([]byte(i18n.T(lang, "TooManyAttempts")))
			return
		}

		username := r.FormValue("username")
		password := r.FormValue("password")

		users, err := store.ReadUsers()
		if err != nil {
			log.Printf("login: reading users: %v", err)
			http.Error(w, i18n.T(lang, "StoreError"), http.StatusInternalServerError)
			return
		}

		var user models.User
		var found bool
		for _, u := range users {
			if strings.EqualFold(u.Username, username) {
				user, found = u, true
				break
			}
		}

		if !found || !store.CheckPasswordHash(password, user.PasswordHash) {
			loginLimiter.RecordFailure(ip)
			w.Header().Set("HX-Trigger", "loginError")
			// HTMX doesn't process HX-Trigger on 401/403 by default.
			// We return 200 OK for HTMX requests to ensure the trigger works.
			if r.Header.Get("HX-Request") == "true" {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusUnauthorized)
			}
			return
		}

		loginLimiter.Reset(ip)
		auth.SetSession(w, r, user.Username, user.Name)
		w.Header().Set("HX-Redirect", "/tracker")
		return
	}
	renderTemplate(w, r, "login.html", nil)
}

func SignupHandler(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)
	if r.Method == http.MethodPost {
		ip := getClientIP(r)
		if !signupLimiter.Allow(ip) {
			signupError(w, i18n.T(lang, "TooManyAttempts"))
			return
		}

		name := r.FormValue("name")
		username := r.FormValue("username")
		password := r.FormValue("password")

		if !captcha.VerifyString(r.FormValue("captcha_id"), r.FormValue("captcha_solution")) {
			signupLimiter.RecordFailure(ip)
			signupError(w, i18n.T(lang, "CaptchaIncorrect"))
			return
		}

		if username == "" || name == "" {
			signupError(w, i18n.T(lang, "MissingFields"))
			return
		}
		if len(password) < minPasswordLength {
			signupError(w, i18n.T(lang, "WeakPassword"))
			return
		}

		users, err := store.ReadUsers()
		if err != nil {
			log.Printf("signup: reading users: %v", err)
			signupError(w, i18n.T(lang, "StoreError"))
			return
		}

		// Duplicate-username guard runs before any write.
		for _, u := range users {
			if strings.EqualFold(u.Username, username) {
				signupLimiter.RecordFailure(ip)
				signupError(w, i18n.T(lang, "UsernameAlreadyExists"))
				return
			}
		}

		hashedPassword, err := store.HashPassword(password)
		if err != nil {
			signupError(w, i18n.T(lang, "StoreError"))
			return
		}

		users = append(users, models.User{Username: username, Name: name, PasswordHash: hashedPassword})
		if err := store.WriteUsers(users); err != nil {
			log.Printf("signup: writing users: %v", err)
			signupError(w, i18n.T(lang, "StoreError"))
			return
		}

		// Seed the 30-day block. If this write fails the user exists without
		// entries; the empty-data check on the tracker page catches that.
		entries, err := store.ReadEntries()
		if err == nil {
			seeded := append(entries, tracker.SeedEntries(username, config.StartTime())...)
			err = store.WriteEntries(seeded)
		}
		if err != nil {
			log.Printf("signup: seeding entries for %q: %v", username, err)
			signupError(w, i18n.T(lang, "StoreError"))
			return
		}

		signupLimiter.Reset(ip)
		w.Header().Set("HX-Retarget", "#signup-message")
		w.Write([]byte(i18n.T(lang, "RegistrationSuccess")))
		return
	}
	renderTemplate(w, r, "signup.html", map[string]any{"CaptchaID": captcha.New()})
}

func signupError(w http.ResponseWriter, msg string) {
	w.Header().Set("HX-Retarget", "#error-message")
	w.Write([]byte(msg))
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func TrackerHandler(w http.ResponseWriter, r *http.Request) {
	username, name := auth.CurrentUser(r)
	if username == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	lang := i18n.DetectLanguage(r)

	all, err := store.ReadEntries()
	if err != nil {
		log.Printf("tracker: reading entries: %v", err)
		http.Error(w, i18n.T(lang, "StoreError"), http.StatusInternalServerError)
		return
	}

	mine := tracker.ForUser(all, username)
	if len(mine) == 0 {
		// Registration partially failed or data was purged; recoverable,
		// but only an administrator can repair it.
		renderTemplate(w, r, "tracker.html", map[string]any{
			"Name":      name,
			"EmptyData": true,
		})
		return
	}

	matrix, err := tracker.Pivot(mine)
	if err != nil {
		log.Printf("tracker: pivoting entries for %q: %v", username, err)
		renderTemplate(w, r, "tracker.html", map[string]any{
			"Name":        name,
			"CorruptData": true,
		})
		return
	}

	renderTemplate(w, r, "tracker.html", map[string]any{
		"Name":   name,
		"Matrix": matrix,
	})
}

func SaveHandler(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.CurrentUser(r)
	if username == "" || r.Method != http.MethodPost {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	lang := i18n.DetectLanguage(r)

	matrix, err := parseGridForm(r)
	if err != nil {
		w.Header().Set("HX-Retarget", "#save-message")
		w.Write([]byte(i18n.T(lang, "MalformedEdit")))
		return
	}

	replacement := tracker.Flatten(matrix, username)

	all, err := store.ReadEntries()
	if err != nil {
		log.Printf("save: reading entries: %v", err)
		http.Error(w, i18n.T(lang, "StoreError"), http.StatusInternalServerError)
		return
	}

	merged, err := tracker.Reconcile(all, username, replacement)
	if err != nil {
		w.Header().Set("HX-Retarget", "#save-message")
		w.Write([]byte(i18n.T(lang, "EmptySaveRejected")))
		return
	}

	if err := store.WriteEntries(merged); err != nil {
		log.Printf("save: writing entries: %v", err)
		http.Error(w, i18n.T(lang, "StoreError"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("HX-Retarget", "#save-message")
	w.Write([]byte(i18n.T(lang, "SavedSuccess")))
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	lang := i18n.DetectLanguage(r)

	funcMap := template.FuncMap{
		"T": func(key string) string {
			return i18n.T(lang, key)
		},
		"cell": func(row tracker.MatrixRow, date string) *bool {
			status, ok := row.Cells[date]
			if !ok {
				return nil
			}
			return &status
		},
		"deref": func(b *bool) bool {
			return b != nil && *b
		},
		"short": func(date string) string {
			if len(date) == 10 {
				return date[8:10]
			}
			return date
		},
	}

	tmpl, err := template.New(name).Funcs(funcMap).ParseFiles("templates/layout.html", "templates/"+name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Prepare CSRF field
	csrfField := csrf.TemplateField(r)

	// If data is a map, ensure AppName and Lang are there
	if m, ok := data.(map[string]any); ok {
		if _, exists := m["AppName"]; !exists {
			m["AppName"] = config.AppConfig.AppName
		}
		m["Lang"] = lang
		m["csrfField"] = csrfField
	} else if data == nil {
		data = map[string]any{
			"AppName":   config.AppConfig.AppName,
			"Lang":      lang,
			"csrfField": csrfField,
		}
	}

	tmpl.ExecuteTemplate(w, "layout", data)
}
