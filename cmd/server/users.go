package main

import (
	"context"

	"github.com/sandeepkv93/media-request-tracker/internal/di"
	"github.com/sandeepkv93/media-request-tracker/internal/domain"
)

type userAdmin interface {
	Create(ctx context.Context, username, password string, isAdmin bool) (*domain.User, error)
	SetPasswordByUsername(ctx context.Context, username, password string) error
}

func withUsers(ctx context.Context, opts *rootOptions, fn func(context.Context, userAdmin) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	users, cleanup, err := di.InitializeUserService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, users)
}
