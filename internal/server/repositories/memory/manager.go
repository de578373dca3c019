// Package memory provides map-backed repositories. The server uses them when
// no database DSN is configured; tests use them as substitute backends.
// Writes made inside TxRunner.WithTx are undone when fn fails.
package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/textblocks"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager returns the same repositories whatever DBTX is
// passed in.
type InMemoryRepositoryManager struct {
	users      *UserRepository
	files      *FileRepository
	textBlocks *TextBlockRepository
}

func NewInMemoryRepositoryManager(now func() time.Time) *InMemoryRepositoryManager {
	if now == nil {
		now = time.Now
	}
	return &InMemoryRepositoryManager{
		users:      NewUserRepository(now),
		files:      NewFileRepository(now),
		textBlocks: NewTextBlockRepository(now),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository { return m.files }

func (m *InMemoryRepositoryManager) TextBlocks(dbx.DBTX) textblocks.Repository { return m.textBlocks }

