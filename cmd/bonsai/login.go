package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mhkc/bonsai-libs/client/bonsai"
)

func newLoginCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the Bonsai API and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			secret := strings.TrimSpace(password)
			if secret == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				secret = string(raw)
			}

			core, err := newCoreClient(cfg, cfg.BonsaiURL, log)
			if err != nil {
				return err
			}
			api := bonsai.New(core)
			ok, err := api.Login(cmd.Context(), username, secret)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("invalid credentials")
			}

			cfg.Token = api.Token()
			if err := cfg.Save(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "login successful")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (supply to avoid prompt)")
	return cmd
}
