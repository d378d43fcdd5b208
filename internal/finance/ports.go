// Package finance defines the ports to the upstream finance API. The
// real adapter lives in finance/rest; finance/memory is a local fake for
// development and tests.
package finance

import (
	"context"
	"io"

	"finview/internal/core"
)

// TokenPair is the credential pair issued by the upstream on login.
type TokenPair struct {
	Access  string
	Refresh string
}

// Download is a pre-formatted export file streamed from the upstream.
// The caller owns Body and must close it.
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// Ports for the upstream API boundary.
type (
	Authenticator interface {
		Register(ctx context.Context, reg core.Registration) (core.User, error)
		Login(ctx context.Context, creds core.Credentials) (TokenPair, error)
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error)
		DeleteCategory(ctx context.Context, id int64) error
	}

	// Maintainer covers the destructive reset and the export download.
	Maintainer interface {
		// Reset deletes all of the user's transactions and categories
		// upstream and returns the server-provided detail message.
		Reset(ctx context.Context) (string, error)
		// Export fetches a pre-formatted file ("json" or "csv"). The
		// client does no formatting of its own.
		Export(ctx context.Context, format string) (Download, error)
	}
)
