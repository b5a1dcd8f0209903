package domain

// User is the public identity embedded in session claims and API responses.
type User struct {
	UserID        int64  `db:"user_id" json:"userId"`
	Email         string `db:"email" json:"email"`
	Name          string `db:"name" json:"name"`
	EmailVerified bool   `db:"email_verified" json:"emailVerified"`
}

// UserCredential is the full stored record behind a registered identity.
// PasswordHash is a bcrypt digest; TwoFactorKeyEncrypted is the TOTP shared
// secret encrypted with the process master key. Neither field ever leaves the
// service layer.
type UserCredential struct {
	User
	PasswordHash          string `db:"password" json:"-"`
	TwoFactorKeyEncrypted string `db:"two_factor_key" json:"-"`
}
