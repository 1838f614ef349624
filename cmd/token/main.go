// Command token mints a bearer token for local testing of the relay, signed
// with the same JWT_SECRET / JWT_ISSUER the server reads.
//
//	go run ./cmd/token -user 7 -email a@example.com -ttl 24h
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-chat-relay/internal/auth"
	"github.com/tbourn/go-chat-relay/internal/config"
	"github.com/tbourn/go-chat-relay/internal/sysutil"
	"github.com/tbourn/go-chat-relay/internal/utils"
)

func main() {
	_ = godotenv.Load()
	sysutil.ConfigureLogging("warn", true, "")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.InsecureJWTSecret() {
		log.Warn().Msg("signing with the default JWT secret")
	}
	if err := run(os.Args[1:], os.Stdout, cfg.Auth); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(2)
	}
}

func run(args []string, out io.Writer, ac config.AuthConfig) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("user", "", "user id to embed (required)")
	email := fs.String("email", "", "optional e-mail claim")
	ttl := fs.Duration("ttl", ac.DevTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	uid, ok := utils.ParseID(*user)
	if !ok {
		return errors.New("-user must be a positive integer")
	}
	if *ttl <= 0 {
		*ttl = 24 * time.Hour
	}

	v, err := auth.NewValidator(ac.Secret, ac.Issuer)
	if err != nil {
		return err
	}
	tok, err := v.Issue(uid, *email, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
