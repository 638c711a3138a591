package services

import (
	"context"
	"database/sql"
	"math/big"
	"time"

	"recvault/internal/common"
	"recvault/internal/dbx"
	"recvault/internal/logging"
	"recvault/internal/server/models"
	"recvault/internal/server/repositories/accounts"
	"recvault/internal/server/repositories/annotations"
	"recvault/internal/server/repositories/apikeys"
	"recvault/internal/server/repositories/recordings"
	"recvault/internal/server/repositories/refreshtokens"
)

// In-memory fakes standing in for the Postgres repositories. Each fake
// records the calls the tests care about; unimplemented paths return the
// zero value.

type fakeAccountsRepo struct {
	byID       map[string]*models.Account
	byEmail    map[string]*models.Account
	createErr  error
	getByIDErr error
	addCalls   []string
	subCalls   []string
	releaseErr error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{
		byID:    map[string]*models.Account{},
		byEmail: map[string]*models.Account{},
	}
}

func (f *fakeAccountsRepo) add(a *models.Account) {
	f.byID[a.ID] = a
	f.byEmail[a.Email] = a
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[a.Email]; exists {
		return nil, common.ErrorConflict
	}
	a.ID = "acc-" + a.Email
	if a.StorageUsed == nil {
		a.StorageUsed = big.NewInt(0)
	}
	f.add(a)
	return a, nil
}

func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccountsRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccountsRepo) AddStorageUsed(ctx context.Context, id string, amount *big.Int) error {
	f.addCalls = append(f.addCalls, id+":"+amount.String())
	return nil
}

func (f *fakeAccountsRepo) SubtractStorageUsed(ctx context.Context, id string, amount *big.Int) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.subCalls = append(f.subCalls, id+":"+amount.String())
	return nil
}

type fakeApiKeysRepo struct {
	byKey       map[string]*models.ApiKey
	getByKeyErr error
	touchErr    error
	touched     []string
	created     []*models.ApiKey
}

func newFakeApiKeysRepo() *fakeApiKeysRepo {
	return &fakeApiKeysRepo{byKey: map[string]*models.ApiKey{}}
}

func (f *fakeApiKeysRepo) Create(ctx context.Context, key *models.ApiKey) (*models.ApiKey, error) {
	key.ID = "key-" + key.Name
	key.CreatedAt = time.Now()
	f.byKey[key.Key] = key
	f.created = append(f.created, key)
	return key, nil
}

func (f *fakeApiKeysRepo) GetByKey(ctx context.Context, raw string) (*models.ApiKey, error) {
	if f.getByKeyErr != nil {
		return nil, f.getByKeyErr
	}
	k, ok := f.byKey[raw]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return k, nil
}

func (f *fakeApiKeysRepo) TouchLastUsed(ctx context.Context, id string) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeApiKeysRepo) ListByAccount(ctx context.Context, accountID string) ([]*models.ApiKey, error) {
	var out []*models.ApiKey
	for _, k := range f.byKey {
		if k.AccountID == accountID {
			out = append(out, k)
		}
	}
	return out, nil
}

type fakeRecordingsRepo struct {
	byID     map[string]*models.Recording
	listed   []*models.Recording
	total    int64
	lastList recordings.Filter

	calls []string

	markReadyErr error
	updateErr    error
	incrementErr error
}

func newFakeRecordingsRepo() *fakeRecordingsRepo {
	return &fakeRecordingsRepo{byID: map[string]*models.Recording{}}
}

func (f *fakeRecordingsRepo) add(rec *models.Recording) { f.byID[rec.ID] = rec }

func (f *fakeRecordingsRepo) Create(ctx context.Context, rec *models.Recording) (*models.Recording, error) {
	rec.ID = "rec-" + rec.Title
	rec.Status = models.RecordingPending
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	f.byID[rec.ID] = rec
	f.calls = append(f.calls, "create")
	return rec, nil
}

func (f *fakeRecordingsRepo) GetOwned(ctx context.Context, id, accountID string) (*models.Recording, error) {
	rec, ok := f.byID[id]
	if !ok || rec.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecordingsRepo) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	rec, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecordingsRepo) GetByShareToken(ctx context.Context, token string) (*models.SharedRecording, error) {
	for _, rec := range f.byID {
		if rec.ShareToken == token && rec.IsPublic {
			cp := *rec
			return &models.SharedRecording{Recording: &cp, OwnerName: "Owner", OwnerAvatar: ""}, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRecordingsRepo) List(ctx context.Context, accountID string, filter recordings.Filter) ([]*models.Recording, error) {
	f.lastList = filter
	return f.listed, nil
}

func (f *fakeRecordingsRepo) Count(ctx context.Context, accountID string, filter recordings.Filter) (int64, error) {
	return f.total, nil
}

func (f *fakeRecordingsRepo) Update(ctx context.Context, rec *models.Recording) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[rec.ID]
	if !ok || stored.AccountID != rec.AccountID {
		return common.ErrorNotFound
	}
	cp := *rec
	f.byID[rec.ID] = &cp
	f.calls = append(f.calls, "update")
	return nil
}

func (f *fakeRecordingsRepo) MarkReady(ctx context.Context, id, videoURL string, fileSize int64, duration float64) error {
	if f.markReadyErr != nil {
		return f.markReadyErr
	}
	rec, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	rec.Status = models.RecordingReady
	rec.VideoURL = videoURL
	rec.FileSize = fileSize
	rec.Duration = duration
	rec.UpdatedAt = time.Now()
	f.calls = append(f.calls, "markready")
	return nil
}

func (f *fakeRecordingsRepo) IncrementViews(ctx context.Context, id string) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	if rec, ok := f.byID[id]; ok {
		rec.Views++
	}
	f.calls = append(f.calls, "increment")
	return nil
}

func (f *fakeRecordingsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	f.calls = append(f.calls, "delete")
	return nil
}

type fakeAnnotationsRepo struct {
	byRecording map[string][]*models.Annotation
	listErr     error
}

func newFakeAnnotationsRepo() *fakeAnnotationsRepo {
	return &fakeAnnotationsRepo{byRecording: map[string][]*models.Annotation{}}
}

func (f *fakeAnnotationsRepo) Create(ctx context.Context, a *models.Annotation) (*models.Annotation, error) {
	a.ID = "ann-1"
	a.CreatedAt = time.Now()
	f.byRecording[a.RecordingID] = append(f.byRecording[a.RecordingID], a)
	return a, nil
}

func (f *fakeAnnotationsRepo) ListByRecording(ctx context.Context, recordingID string) ([]*models.Annotation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byRecording[recordingID], nil
}

type fakeRefreshTokensRepo struct {
	byToken map[string]*models.RefreshToken
	deleted []string
}

func newFakeRefreshTokensRepo() *fakeRefreshTokensRepo {
	return &fakeRefreshTokensRepo{byToken: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshTokensRepo) Create(ctx context.Context, accountID, token string, validity time.Duration) error {
	f.byToken[token] = &models.RefreshToken{
		AccountID: accountID,
		Token:     token,
		Expires:   time.Now().Add(validity),
	}
	return nil
}

func (f *fakeRefreshTokensRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshTokensRepo) Delete(ctx context.Context, token string) error {
	delete(f.byToken, token)
	f.deleted = append(f.deleted, token)
	return nil
}

// fakeRepoManager vends the fakes regardless of the DBTX handed in, so a
// service's transactional sections run against the same state.
type fakeRepoManager struct {
	accounts      *fakeAccountsRepo
	apiKeys       *fakeApiKeysRepo
	recordings    *fakeRecordingsRepo
	annotations   *fakeAnnotationsRepo
	refreshTokens *fakeRefreshTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:      newFakeAccountsRepo(),
		apiKeys:       newFakeApiKeysRepo(),
		recordings:    newFakeRecordingsRepo(),
		annotations:   newFakeAnnotationsRepo(),
		refreshTokens: newFakeRefreshTokensRepo(),
	}
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return f.accounts }
func (f *fakeRepoManager) ApiKeys(dbx.DBTX) apikeys.Repository          { return f.apiKeys }
func (f *fakeRepoManager) Recordings(dbx.DBTX) recordings.Repository    { return f.recordings }
func (f *fakeRepoManager) Annotations(dbx.DBTX) annotations.Repository  { return f.annotations }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return f.refreshTokens
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

func mb(n int64) int64 { return n * 1024 * 1024 }

func keyFor(id, accountID, raw string) *models.ApiKey {
	return &models.ApiKey{ID: id, Key: raw, Name: id, AccountID: accountID}
}

func testAccount(id string, plan models.Plan, used int64) *models.Account {
	return &models.Account{
		ID:          id,
		Email:       id + "@example.com",
		Name:        "Test",
		Plan:        plan,
		StorageUsed: big.NewInt(used),
	}
}
