package services

import (
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/textblocks"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
)

// repoOverride swaps selected repositories of an in-memory manager.
type repoOverride struct {
	*memory.InMemoryRepositoryManager
	users      users.Repository
	files      files.Repository
	textBlocks textblocks.Repository
}

func (o *repoOverride) Users(db dbx.DBTX) users.Repository {
	if o.users != nil {
		return o.users
	}
	return o.InMemoryRepositoryManager.Users(db)
}

func (o *repoOverride) Files(db dbx.DBTX) files.Repository {
	if o.files != nil {
		return o.files
	}
	return o.InMemoryRepositoryManager.Files(db)
}

func (o *repoOverride) TextBlocks(db dbx.DBTX) textblocks.Repository {
	if o.textBlocks != nil {
		return o.textBlocks
	}
	return o.InMemoryRepositoryManager.TextBlocks(db)
}
