package main

import (
	"errors"
	"fmt"
	"qrportal/internal/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// JWTCommand signs an author token with the configured RS256 private key.
// Without --subject a new author ID is minted.
func JWTCommand(cfg *config.Config) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Generates an author JWT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ttl <= 0 {
				return errors.New("ttl must be positive")
			}

			author := uuid.New()
			if subject != "" {
				var err error
				if author, err = uuid.Parse(subject); err != nil {
					return fmt.Errorf("subject must be a UUID: %w", err)
				}
			} else {
				cmd.PrintErrf("minted author %s\n", author)
			}

			key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.JWT.PrivateKey))
			if err != nil {
				return fmt.Errorf("could not parse RSA private key: %w", err)
			}

			now := time.Now()
			signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   author.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				NotBefore: jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			}).SignedString(key)
			if err != nil {
				return fmt.Errorf("could not sign JWT: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), signed)

			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "author UUID; a new one is minted when empty")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime (e.g. 15m, 1h)")

	return cmd
}
