package repomanager

import (
	"context"
	"database/sql"

	"recvault/internal/dbx"
	"recvault/internal/server/repositories/accounts"
	"recvault/internal/server/repositories/annotations"
	"recvault/internal/server/repositories/apikeys"
	"recvault/internal/server/repositories/recordings"
	"recvault/internal/server/repositories/refreshtokens"
)

// RepositoryManager vends repository implementations bound to a DBTX, so a
// service can run several repositories inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	ApiKeys(db dbx.DBTX) apikeys.Repository
	Recordings(db dbx.DBTX) recordings.Repository
	Annotations(db dbx.DBTX) annotations.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
