package main

import (
	"context"
	"errors"
	"fmt"

	"igclient/pkg/auth"
	"igclient/pkg/instagram"
	"igclient/pkg/ui"
)

// resolveAccount picks the credentials for this run. An explicit --account
// always goes to the credential stores; otherwise a configured username and
// password win.
func resolveAccount() (*auth.Account, error) {
	ig := cfg.Instagram
	if accountName == "" && ig.Username != "" && ig.Password != "" {
		return &auth.Account{
			Username:   ig.Username,
			Password:   ig.Password,
			TOTPSecret: ig.TOTPSecret,
		}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	switch {
	case accountName != "":
		account, err = manager.Retrieve(accountName)
	case ig.Username != "":
		account, err = manager.Retrieve(ig.Username)
	default:
		account, err = manager.RetrieveDefault()
	}
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		return nil, fmt.Errorf("no credentials found, run 'igclient auth login' or set IGCLIENT_USERNAME and IGCLIENT_PASSWORD")
	}
	if err != nil {
		return nil, err
	}

	if account.TOTPSecret == "" {
		account.TOTPSecret = ig.TOTPSecret
	}
	return account, nil
}

// openSession builds a client from the loaded configuration and logs in
func openSession(ctx context.Context) (*instagram.Client, error) {
	account, err := resolveAccount()
	if err != nil {
		return nil, err
	}

	opts := instagram.OptionsFromConfig(cfg, log)
	opts.Username = account.Username
	opts.Password = account.Password
	opts.TOTPSecret = account.TOTPSecret

	client, err := instagram.NewClient(opts, log)
	if err != nil {
		return nil, err
	}

	if res := client.Connect(ctx); !res.Succeeded {
		return nil, fmt.Errorf("login as %s failed: %w", account.Username, res.Err())
	}
	log.InfoWithFields("logged in", map[string]interface{}{
		"username": account.Username,
	})
	return client, nil
}

// closeSession logs out, reporting but not failing on errors
func closeSession(client *instagram.Client) {
	if res := client.Logout(context.Background()); !res.Succeeded {
		log.WarnWithFields("logout failed", map[string]interface{}{
			"error": res.Err().Error(),
		})
	}
}

// runOperation opens a session, runs op and renders what present makes of
// its value
func runOperation[T any](ctx context.Context, op func(context.Context, *instagram.Client) (T, error), present func(T) interface{}) error {
	format, err := resultFormat()
	if err != nil {
		return err
	}

	client, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSession(client)

	value, err := op(ctx, client)
	if err != nil {
		return err
	}
	return ui.RenderResult(present(value), format)
}

func identity[T any](v T) interface{} {
	return v
}
