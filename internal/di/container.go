// Package di provides dependency injection configuration for librarydesk.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/librarydesk/librarydesk/internal/config"
	"github.com/librarydesk/librarydesk/internal/di/providers"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/service"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
// Overrides carry the command-line flags into configuration loading.
func NewContainer(o config.Overrides) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, o)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideHub)

	// Remote gateway
	do.Provide(injector, providers.ProvideGateway)

	// Screens
	do.Provide(injector, providers.ProvideDeps)
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideReaderService)
	do.Provide(injector, providers.ProvidePostService)
	do.Provide(injector, providers.ProvideBorrowService)

	return injector
}

// Bootstrap initializes the core services. Screens are built lazily on
// first use, since each command touches only one or two of them.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.HubHandle](injector)
	if _, err := do.Invoke[*gateway.Client](injector); err != nil {
		return err
	}
	return nil
}

// Warm loads the shared readers and books so that borrow lookups and title
// suggestions have data.
func Warm(ctx context.Context, injector do.Injector) error {
	reg := do.MustInvoke[*providers.RegistryHandle](injector)
	return reg.Warm(ctx)
}

// Screens bundles every screen for commands that need more than one.
type Screens struct {
	Books   *service.BookService
	Readers *service.ReaderService
	Posts   *service.PostService
	Borrows *service.BorrowService
}

// InvokeScreens resolves all four screens.
func InvokeScreens(injector do.Injector) (*Screens, error) {
	books, err := do.Invoke[*service.BookService](injector)
	if err != nil {
		return nil, err
	}
	readers, err := do.Invoke[*service.ReaderService](injector)
	if err != nil {
		return nil, err
	}
	posts, err := do.Invoke[*providers.PostServiceHandle](injector)
	if err != nil {
		return nil, err
	}
	borrows, err := do.Invoke[*providers.BorrowServiceHandle](injector)
	if err != nil {
		return nil, err
	}
	return &Screens{Books: books, Readers: readers, Posts: posts.PostService, Borrows: borrows.BorrowService}, nil
}
