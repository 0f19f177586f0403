// Command token mints an access token for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
)

func main() {
	cfg, err := config.LoadJWT()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(os.Args[1:], jwt.NewJWTService(cfg.Secret, cfg.AccessExpiration), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(args []string, issuer jwt.Service, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user-id", "", "Required: user id (uuid)")
	role := fs.String("role", string(user.RoleUser), "admin, manager or user")
	department := fs.String("department", "", "Department of the caller")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*userID) == "" {
		return fmt.Errorf("--user-id is required")
	}
	r, ok := user.ParseRole(strings.ToLower(strings.TrimSpace(*role)))
	if !ok {
		return fmt.Errorf("unknown role %q", *role)
	}

	token, expiresAt, err := issuer.GenerateAccessToken(user.Caller{
		UserID:     strings.TrimSpace(*userID),
		Role:       r,
		Department: strings.TrimSpace(*department),
	})
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "expires %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
	return nil
}
