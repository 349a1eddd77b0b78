package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	configContent := `{
		"app_name": "TestApp",
		"listen_ip": "127.0.0.1",
		"listen_port": 9090,
		"session_key": "test-session-key",
		"db_path": "./test.db",
		"start_date": "2026-02-18"
	}`
	tmpfile, err := os.CreateTemp("", "config.json")
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temporary file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temporary file: %v", err)
	}

	// Test loading the config
	err = LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig.AppName != "TestApp" {
		t.Errorf("Expected AppName 'TestApp', got '%s'", AppConfig.AppName)
	}
	if AppConfig.ListenIP != "127.0.0.1" {
		t.Errorf("Expected ListenIP '127.0.0.1', got '%s'", AppConfig.ListenIP)
	}
	if AppConfig.ListenPort != 9090 {
		t.Errorf("Expected ListenPort 9090, got %d", AppConfig.ListenPort)
	}
	if AppConfig.SessionKey != "test-session-key" {
		t.Errorf("Expected SessionKey 'test-session-key', got '%s'", AppConfig.SessionKey)
	}
	if AppConfig.StartDate != "2026-02-18" {
		t.Errorf("Expected StartDate '2026-02-18', got '%s'", AppConfig.StartDate)
	}

	start := StartTime()
	if start.Year() != 2026 || start.Month() != 2 || start.Day() != 18 {
		t.Errorf("StartTime returned wrong date: %v", start)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpfile, _ := os.CreateTemp("", "config.json")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte(`{"app_name": "Defaults", "session_key": "k"}`))
	tmpfile.Close()

	if err := LoadConfig(tmpfile.Name()); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if AppConfig.StartDate != "2026-02-18" {
		t.Errorf("Expected default StartDate '2026-02-18', got '%s'", AppConfig.StartDate)
	}
	if AppConfig.DBPath == "" {
		t.Error("Expected a default DBPath, got empty")
	}
}

func TestLoadConfigInvalidStartDate(t *testing.T) {
	tmpfile, _ := os.CreateTemp("", "config.json")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte(`{"session_key": "k", "start_date": "18/02/2026"}`))
	tmpfile.Close()

	if err := LoadConfig(tmpfile.Name()); err == nil {
		t.Error("LoadConfig with malformed start_date should have failed")
	}
}

func TestLoadConfigInvalidPath(t *testing.T) {
	err := LoadConfig("non-existent-path.json")
	if err == nil {
		t.Error("LoadConfig with non-existent path should have failed")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	tmpfile, _ := os.CreateTemp("", "invalid_config.json")
	defer os.Remove(tmpfile.Name())
	tmpfile.Write([]byte(`{ "invalid": json }`))
	tmpfile.Close()

	err := LoadConfig(tmpfile.Name())
	if err == nil {
		t.Error("LoadConfig with invalid JSON should have failed")
	}
}
