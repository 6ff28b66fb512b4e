package models

// User is a registered account. Only the bcrypt hash of the password is kept.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// Profile is the public part of a User, safe to return to clients.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile strips the credential from u.
func (u User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email}
}
