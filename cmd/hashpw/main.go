// Command hashpw generates a bcrypt hash for the auth.password_hash config
// field.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := flag.String("password", "", "Password to hash (or set AUTH_ADMIN_PASSWORD)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	value := *password
	if value == "" {
		value = os.Getenv("AUTH_ADMIN_PASSWORD")
	}
	if value == "" {
		fmt.Fprintln(os.Stderr, "password is required: use -password or AUTH_ADMIN_PASSWORD")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(value), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
