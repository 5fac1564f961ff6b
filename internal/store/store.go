package store

import (
	"context"

	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/merge"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
)

// Store is the local persistence boundary. The protocol core never touches
// it directly: callers load collections, run the core, and persist what
// comes back.
type Store interface {
	auth.UserStore

	LoadDataset(ctx context.Context) (merge.Dataset, error)
	SaveDataset(ctx context.Context, ds merge.Dataset) error

	LoadSessions(ctx context.Context) ([]otp.Session, error)
	SaveSessions(ctx context.Context, sessions []otp.Session) error

	Close(ctx context.Context) error
}
