package secrets

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// randInt is swappable so tests can simulate an entropy failure.
var randInt func(rand io.Reader, max *big.Int) (*big.Int, error) = rand.Int

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%&*?" // bash-safe
)

// MinPasswordLength is the floor for generated credentials.
const MinPasswordLength = 16

// PasswordPolicy controls generated credential shape. The zero value is not
// usable; call Default or fill every field.
type PasswordPolicy struct {
	Length        int
	RequireLower  bool
	RequireUpper  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy returns the policy used when config does not
// override it: 24 characters, one of each class guaranteed.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		Length:        24,
		RequireLower:  true,
		RequireUpper:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Validate ensures the policy can produce a credential.
func (p PasswordPolicy) Validate() error {
	if p.Length < MinPasswordLength {
		return fmt.Errorf("password length %d below minimum %d", p.Length, MinPasswordLength)
	}
	if !p.RequireLower && !p.RequireUpper && !p.RequireDigit && !p.RequireSymbol {
		return fmt.Errorf("password policy requires at least one character class")
	}
	return nil
}

func (p PasswordPolicy) classes() []string {
	var groups []string
	if p.RequireLower {
		groups = append(groups, lowerChars)
	}
	if p.RequireUpper {
		groups = append(groups, upperChars)
	}
	if p.RequireDigit {
		groups = append(groups, digitChars)
	}
	if p.RequireSymbol {
		groups = append(groups, symbolChars)
	}
	return groups
}

// GeneratePassword creates a random credential with at least one character
// from each required class, using crypto/rand throughout.
func GeneratePassword(p PasswordPolicy) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	groups := p.classes()
	all := strings.Join(groups, "")

	var pw []byte

	// Guarantee one character from each required class
	for _, group := range groups {
		c, err := randomChar(group)
		if err != nil {
			return "", err
		}
		pw = append(pw, c)
	}

	// Fill the rest
	for i := len(pw); i < p.Length; i++ {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		pw = append(pw, c)
	}

	if err := shuffle(pw); err != nil {
		return "", err
	}

	return string(pw), nil
}

func randomChar(charset string) (byte, error) {
	n, err := randInt(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		jBig, err := randInt(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := int(jBig.Int64())
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
