package cli

import (
	"fmt"
	"io"

	"github.com/codevault/codevault/internal/auth"
)

// PrintHash reads a password twice and writes its bcrypt hash to w, for use
// as the owner password hash in the server configuration.
func PrintHash(w io.Writer) error {
	first, err := GetPassword("Password", w)
	if err != nil {
		return err
	}
	second, err := GetPassword("Repeat password", w)
	if err != nil {
		return err
	}
	if first != second {
		return fmt.Errorf("passwords do not match")
	}
	if first == "" {
		return fmt.Errorf("password must not be empty")
	}

	h, err := auth.HashPassword(first)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, h)
	return err
}
