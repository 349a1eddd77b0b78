package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dchest/captcha"
	"github.com/gorilla/csrf"

	"amaltrack/auth"
	"amaltrack/config"
	"amaltrack/handlers"
	"amaltrack/i18n"
	"amaltrack/store"
)

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if err := i18n.LoadTranslations("i18n"); err != nil {
		log.Fatalf("Error loading translations: %v", err)
	}

	auth.InitStore()

	store.InitDB(config.AppConfig.DBPath)
	defer store.DB.Close()

	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Captcha images for the signup form
	mux.Handle("/captcha/", captcha.Server(captcha.StdWidth, captcha.StdHeight))

	// Register application handlers
	handlers.RegisterHandlers(mux)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.ListenIP, config.AppConfig.ListenPort)
	log.Printf("Server starting on %s (%s)", addr, config.AppConfig.AppName)

	// CSRF Protection
	// We need a 32-byte key. Using session key for now, assuming it's suitable.
	// In production, this should be a separate key.
	csrfMiddleware := csrf.Protect(
		[]byte(config.AppConfig.SessionKey),
		csrf.Secure(false), // Set to true in production with HTTPS
		csrf.Path("/"),
	)

	handler := handlers.CORSMiddleware(csrfMiddleware(handlers.SecurityHeadersMiddleware(mux)))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
