package models

// User is one row of the Users table. The username is the unique key;
// PasswordHash is a bcrypt hash, never the raw secret.
type User struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// Entry is one row of the Entries table: a single observance for a single
// user on a single day. The composite key is (Username, Date, Task).
type Entry struct {
	Username string `json:"username"`
	Date     string `json:"date"` // YYYY-MM-DD
	Category string `json:"category"`
	Task     string `json:"task"`
	Status   bool   `json:"status"`
}
