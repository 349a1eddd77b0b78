package store

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"amaltrack/models"
)

var DB *sql.DB

// InitDB opens the sqlite database and creates the three tables: the two
// logical worksheets (users, entries) and the api_sessions token table.
func InitDB(dataSourceName string) {
	var err error
	DB, err = sql.Open("sqlite3", dataSourceName)
	if err != nil {
		log.Fatal(err)
	}

	createTables := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		username TEXT NOT NULL,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		task TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS api_sessions (
		token TEXT PRIMARY KEY,
		username TEXT NOT NULL
	);
	`

	_, err = DB.Exec(createTables)
	if err != nil {
		log.Fatalf("Error creating tables: %v", err)
	}
}

// ReadUsers returns the full users table, always fresh from the store.
func ReadUsers() ([]models.User, error) {
	rows, err := DB.Query("SELECT username, name, password_hash FROM users ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Username, &u.Name, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("reading users: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// WriteUsers replaces the entire users table. There is no row-level update
// path; callers read, modify and write back the whole set.
func WriteUsers(users []models.User) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("writing users: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM users"); err != nil {
		return fmt.Errorf("writing users: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO users (username, name, password_hash) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("writing users: %w", err)
	}
	defer stmt.Close()
	for _, u := range users {
		if _, err := stmt.Exec(u.Username, u.Name, u.PasswordHash); err != nil {
			return fmt.Errorf("writing users: %w", err)
		}
	}
	return tx.Commit()
}

// ReadEntries returns the full entries table in stored order.
func ReadEntries() ([]models.Entry, error) {
	rows, err := DB.Query("SELECT username, date, category, task, status FROM entries ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		var status any
		if err := rows.Scan(&e.Username, &e.Date, &e.Category, &e.Task, &status); err != nil {
			return nil, fmt.Errorf("reading entries: %w", err)
		}
		e.Status = normalizeStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// WriteEntries replaces the entire entries table in one transaction.
func WriteEntries(entries []models.Entry) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO entries (username, date, category, task, status) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		status := 0
		if e.Status {
			status = 1
		}
		if _, err := stmt.Exec(e.Username, e.Date, e.Category, e.Task, status); err != nil {
			return fmt.Errorf("writing entries: %w", err)
		}
	}
	return tx.Commit()
}

// normalizeStatus accepts the status encodings observed in practice:
// integer 0/1, boolean, or textual true/false.
func normalizeStatus(v any) bool {
	switch s := v.(type) {
	case int64:
		return s != 0
	case bool:
		return s
	case string:
		return s == "1" || s == "true" || s == "TRUE" || s == "True"
	case []byte:
		return normalizeStatus(string(s))
	case float64:
		return s != 0
	default:
		return false
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
