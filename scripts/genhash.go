// One-off: go run scripts/genhash.go [password]
// Prints a bcrypt hash and a fresh API key, for seeding users by hand.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := "admin"
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		panic(err)
	}
	fmt.Printf("password_hash: %s\napi_key: %s\n", h, uuid.NewString())
}
