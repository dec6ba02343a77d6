package actions

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const passwordLetters = "abcdefghijklmnopqrstuvwxyz"

// generatePassword returns a fresh credential of five random lowercase
// letters followed by one random digit.
func generatePassword() (string, error) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordLetters))))
		if err != nil {
			return "", fmt.Errorf("generating password: %w", err)
		}
		b.WriteByte(passwordLetters[n.Int64()])
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10))
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	b.WriteString(n.String())
	return b.String(), nil
}

// generateCode returns a six-digit verification code between 100000 and
// 999999 inclusive.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// spellOut renders a credential character by character, separated by periods,
// so a speech engine reads it out letter at a time.  "pwdx1" becomes
// " . p . w . d . x . 1 . ".
func spellOut(s string) string {
	if s == "" {
		return ""
	}
	return " . " + strings.Join(strings.Split(s, ""), " . ") + " . "
}
