//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/sandeepkv93/media-request-tracker/internal/app"
	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
)

func InitializeApp(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	wire.Build(infraSet, repositorySet, serviceSet, httpSet, provideApp)
	return nil, nil, nil
}

func InitializeDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	wire.Build(provideCLILogger, provideDB)
	return nil, nil, nil
}

func InitializeUserService(cfg *config.Config) (*service.UserService, func(), error) {
	wire.Build(
		provideCLILogger,
		provideDB,
		repository.NewUserRepository,
		repository.NewUserEmailRepository,
		provideHasher,
		service.NewMailer,
		service.NewNotifier,
		service.NewUserService,
	)
	return nil, nil, nil
}
