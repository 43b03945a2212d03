package providers

import (
	"github.com/samber/do/v2"

	"github.com/librarydesk/librarydesk/internal/config"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/service"
	"github.com/librarydesk/librarydesk/internal/shared"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// ProvideDeps provides the collaborators shared by every screen.
func ProvideDeps(i do.Injector) (service.Deps, error) {
	cfg := do.MustInvoke[*config.Config](i)

	// A configured zero commits search text at once. Managers read zero as
	// "use the default delay" and a negative delay as synchronous.
	delay := cfg.UI.SearchDebounce
	if delay == 0 {
		delay = -1
	}

	return service.Deps{
		Client:      do.MustInvoke[*gateway.Client](i),
		Hub:         do.MustInvoke[*HubHandle](i).Hub,
		Logger:      do.MustInvoke[*logger.Logger](i),
		Validator:   do.MustInvoke[*validation.Validator](i),
		SearchDelay: delay,
	}, nil
}

// RegistryHandle wraps the shared registry with shutdown capability.
type RegistryHandle struct {
	*shared.Registry
}

// Shutdown implements do.Shutdowner.
func (h *RegistryHandle) Shutdown() {
	h.Close()
}

// ProvideRegistry provides the registry that owns readers and books.
func ProvideRegistry(i do.Injector) (*RegistryHandle, error) {
	deps := do.MustInvoke[service.Deps](i)

	reg := shared.New(service.NewReaderManager(deps), service.NewBookManager(deps), deps.Logger)
	return &RegistryHandle{Registry: reg}, nil
}

// ProvideBookService provides the book screen.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	reg := do.MustInvoke[*RegistryHandle](i)
	client := do.MustInvoke[*gateway.Client](i)

	return service.NewBookService(reg.Registry, client), nil
}

// ProvideReaderService provides the reader screen.
func ProvideReaderService(i do.Injector) (*service.ReaderService, error) {
	reg := do.MustInvoke[*RegistryHandle](i)

	return service.NewReaderService(reg.Registry), nil
}

// PostServiceHandle wraps the post screen with shutdown capability.
type PostServiceHandle struct {
	*service.PostService
}

// Shutdown implements do.Shutdowner.
func (h *PostServiceHandle) Shutdown() {
	h.Close()
}

// ProvidePostService provides the post screen.
func ProvidePostService(i do.Injector) (*PostServiceHandle, error) {
	deps := do.MustInvoke[service.Deps](i)

	return &PostServiceHandle{PostService: service.NewPostService(deps)}, nil
}

// BorrowServiceHandle wraps the borrow screen with shutdown capability.
type BorrowServiceHandle struct {
	*service.BorrowService
}

// Shutdown implements do.Shutdowner.
func (h *BorrowServiceHandle) Shutdown() {
	h.Close()
}

// ProvideBorrowService provides the borrow screen.
func ProvideBorrowService(i do.Injector) (*BorrowServiceHandle, error) {
	deps := do.MustInvoke[service.Deps](i)
	reg := do.MustInvoke[*RegistryHandle](i)

	return &BorrowServiceHandle{BorrowService: service.NewBorrowService(deps, reg.Registry)}, nil
}
