// Command devtoken выпускает JWT для локальной разработки и ручных проверок API.
package main

import (
	"flag"
	"fmt"
	"os"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/config"
)

func main() {
	userID := flag.String("user", "dev-user", "user id (sub)")
	email := flag.String("email", "", "user email")
	role := flag.String("role", auth.RoleGuest, "role: guest or admin")
	envFile := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}
	if *role != auth.RoleGuest && *role != auth.RoleAdmin {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg := config.Load()
	token, err := auth.NewTokenManager(&cfg.Auth).Issue(*userID, *email, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
