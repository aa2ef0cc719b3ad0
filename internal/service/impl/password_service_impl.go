package impl

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordServiceBcrypt hashes passwords with bcrypt after appending a
// server-wide pepper. The pepper lives outside the database, so a dumped
// users table alone is not enough to run an offline attack.
type PasswordServiceBcrypt struct {
	pepper string
	cost   int
}

func NewPasswordServiceBcrypt(pepper string) *PasswordServiceBcrypt {
	return &PasswordServiceBcrypt{pepper: pepper, cost: bcrypt.DefaultCost}
}

func (p *PasswordServiceBcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password+p.pepper), p.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches the stored hash. Malformed hashes
// verify as false rather than erroring.
func (p *PasswordServiceBcrypt) Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password+p.pepper)) == nil
}
