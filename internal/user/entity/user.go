package entity

import "time"

// User is one row of the `users` credential table.
// Password holds whatever the configured hasher stored (a salted hash,
// or the raw value under the plain scheme).
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Password     string    `db:"password"`
	PasswordAlgo string    `db:"password_algo"`
	CreatedAt    time.Time `db:"created_at"`
}
