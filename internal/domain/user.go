package domain

// User represents a registered account. JoinedAt is kept as an RFC 3339
// string so both persistence backends serve byte-identical values.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	JoinedAt     string
}

// Profile is the externally visible subset of User. The password hash is
// excluded at the type level so it can never leak through a read path.
type Profile struct {
	ID       int64
	Email    string
	Name     string
	JoinedAt string
}

// Profile returns the public view of the user.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		JoinedAt: u.JoinedAt,
	}
}
