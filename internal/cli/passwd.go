// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// passwd.go - Credentials for the login view.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/jeranaias/navshell/internal/config"
)

// MinPasswordLength is the shortest password passwd accepts.
const MinPasswordLength = 8

// HandlePasswd prompts for a username (unless --user is given) and a
// password and stores the bcrypt hash in the config file. --totp also
// enrolls an authenticator app.
func HandlePasswd(args Args, w io.Writer) error {
	if err := DetectTerminal().RequireInteractive("set a password"); err != nil {
		return err
	}
	path, err := ConfigFilePath(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}

	user := args.Parser.Value("user")
	if user == "" {
		fmt.Fprint(w, "Username: ")
		user, err = bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}

	// SECURITY: passwords are read without echo.
	fmt.Fprint(w, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return err
	}
	fmt.Fprint(w, "Repeat password: ")
	again, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return err
	}
	if string(pw) != string(again) {
		return errors.New("passwords do not match")
	}

	key, err := SetCredentials(cfg, strings.TrimSpace(user), string(pw), args.Parser.Bool("totp"))
	if err != nil {
		return err
	}
	if err := saveConfigFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintln(w, Success("Login credentials saved to "+path))
	if key != nil {
		fmt.Fprintln(w, Field("TOTP secret", key.Secret()))
		fmt.Fprintln(w, Field("Provisioning URL", key.URL()))
		fmt.Fprintln(w, DimStyle.Render("Add the secret to your authenticator app; the login view asks for its code."))
	}
	return nil
}

// SetCredentials hashes password into cfg.Login. With withTOTP a new TOTP
// key is generated and returned; otherwise any previous TOTP secret is
// removed.
func SetCredentials(cfg *config.Config, user, password string, withTOTP bool) (*otp.Key, error) {
	if user == "" {
		return nil, errors.New("username is required")
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	cfg.Login.Username = user
	cfg.Login.PasswordHash = string(hash)
	cfg.Login.TOTPSecret = ""

	if !withTOTP {
		return nil, nil
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "navshell", AccountName: user})
	if err != nil {
		return nil, fmt.Errorf("generate TOTP key: %w", err)
	}
	cfg.Login.TOTPSecret = key.Secret()
	return key, nil
}
