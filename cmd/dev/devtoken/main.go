package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"hostel/pkg/config"
	"hostel/pkg/supabase"
)

// devtoken mints an access token signed with SUPABASE_JWT_SECRET for calling a local API as a seeded user.
func main() {
	var (
		userID = flag.String("user", "", "user id (profiles.id)")
		email  = flag.String("email", "", "optional email claim")
		ttl    = flag.Duration("ttl", time.Hour, "token lifetime")
	)
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to mint tokens with APP_ENV=prod")
		os.Exit(2)
	}
	if cfg.Supabase.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "missing SUPABASE_JWT_SECRET in env/.env")
		os.Exit(2)
	}

	tok, err := supabase.MintAccessToken(*userID, *email, cfg.Supabase.Audience, cfg.Supabase.JWTSecret, time.Now(), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
