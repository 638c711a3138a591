package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"recvault/internal/common"
	"recvault/internal/server/config"
	"recvault/internal/server/models"
	"recvault/internal/server/quota"
	"recvault/internal/server/repositories/repomanager"
)

// capabilityValidity is the fixed lifetime of every presigned URL issued by
// the coordinator.
const capabilityValidity = time.Hour

// Seams over the AWS SDK so tests can intercept presigning.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	presignDeleteObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignDeleteObject(ctx, in, optFns...)
	}
)

// ReserveRequest describes an upload a client wants to perform.
type ReserveRequest struct {
	FileName    string
	FileType    string
	FileSize    int64
	RecordingID string
}

// ConfirmRequest reports a finished external transfer. FileSize is the
// caller-declared byte count.
type ConfirmRequest struct {
	RecordingID string
	FileKey     string
	FileSize    int64
	Duration    float64
}

// UploadService coordinates the three-phase upload protocol: reserve a
// write capability, let the client transfer bytes directly to object
// storage, then confirm and charge quota. The coordinator has no
// visibility into the transfer itself.
type UploadService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	ledger *quota.Ledger
	config *config.Config
}

// NewUploadService constructs an UploadService.
func NewUploadService(db *sql.DB, repos repomanager.RepositoryManager, ledger *quota.Ledger, cfg *config.Config) *UploadService {
	return &UploadService{db: db, repos: repos, ledger: ledger, config: cfg}
}

func (s *UploadService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKeyID,
			s.config.S3SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		}
	})

	return newS3PresignClient(client), nil
}

// objectKey derives a collision-resistant object-store key scoped under the
// owning account and recording.
func objectKey(accountID, recordingID, fileName string) string {
	return fmt.Sprintf("recordings/%s/%s/%s-%s", accountID, recordingID, uuid.New(), fileName)
}

// objectLocation derives the canonical HTTPS location of an object from the
// bucket, region, and key.
func (s *UploadService) objectLocation(fileKey string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.S3Bucket, s.config.S3Region, fileKey)
}

// Reserve checks ownership and quota admission, then issues a time-boxed
// write capability for a fresh object key. No metadata or quota state is
// mutated: admission is advisory, and an abandoned ticket costs nothing.
func (s *UploadService) Reserve(ctx context.Context, account *models.Account, req ReserveRequest) (*models.UploadTicket, error) {
	if _, err := s.repos.Recordings(s.db).GetOwned(ctx, req.RecordingID, account.ID); err != nil {
		return nil, err
	}

	if err := s.ledger.Admit(account, req.FileSize); err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, fmt.Errorf("presign client: %w", err)
	}

	fileKey := objectKey(account.ID, req.RecordingID, req.FileName)

	signed, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(fileKey),
		ContentType: aws.String(req.FileType),
	}, s3.WithPresignExpires(capabilityValidity))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &models.UploadTicket{
		UploadURL: signed.URL,
		FileKey:   fileKey,
		ExpiresIn: int64(capabilityValidity.Seconds()),
	}, nil
}

// Confirm marks the recording READY with its resolved location, declared
// size, and duration, then charges the quota ledger. The two writes are
// separate atomic steps; a crash in between leaves the metadata updated and
// the ledger behind, which is tolerated rather than rolled back.
//
// The declared size is trusted as-is (the object store is not consulted),
// but it must not be negative: the ledger only ever moves up here, releases
// go through Release.
func (s *UploadService) Confirm(ctx context.Context, account *models.Account, req ConfirmRequest) (*models.Recording, error) {
	if req.FileSize < 0 {
		return nil, fmt.Errorf("invalid declared size: %d", req.FileSize)
	}

	if _, err := s.repos.Recordings(s.db).GetOwned(ctx, req.RecordingID, account.ID); err != nil {
		return nil, err
	}

	videoURL := s.objectLocation(req.FileKey)

	if err := s.repos.Recordings(s.db).MarkReady(ctx, req.RecordingID, videoURL, req.FileSize, req.Duration); err != nil {
		return nil, fmt.Errorf("error updating recording: %w", err)
	}

	if err := s.ledger.Charge(ctx, account.ID, req.FileSize); err != nil {
		return nil, err
	}

	return s.repos.Recordings(s.db).GetOwned(ctx, req.RecordingID, account.ID)
}

// ViewCapability issues a time-boxed read capability for a recording's
// payload. There is deliberately no ownership or visibility check here:
// any caller holding the recording id can mint a view URL, matching the
// shareable-by-link semantics of the confirm/view flow.
func (s *UploadService) ViewCapability(ctx context.Context, recordingID string) (*models.ViewTicket, error) {
	recording, err := s.repos.Recordings(s.db).GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if recording.VideoURL == "" {
		return nil, common.ErrorNotFound
	}

	fileKey, err := keyFromLocation(recording.VideoURL)
	if err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, fmt.Errorf("presign client: %w", err)
	}

	signed, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(capabilityValidity))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	return &models.ViewTicket{
		ViewURL:   signed.URL,
		ExpiresIn: int64(capabilityValidity.Seconds()),
	}, nil
}

// DeleteCapability issues a time-boxed delete capability for a recording's
// payload. It is a hook for an external cleanup collaborator; nothing in
// the request path depends on it.
func (s *UploadService) DeleteCapability(ctx context.Context, recordingID string) (string, error) {
	recording, err := s.repos.Recordings(s.db).GetByID(ctx, recordingID)
	if err != nil {
		return "", err
	}
	if recording.VideoURL == "" {
		return "", common.ErrorNotFound
	}

	fileKey, err := keyFromLocation(recording.VideoURL)
	if err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", fmt.Errorf("presign client: %w", err)
	}

	signed, err := presignDeleteObject(presignClient, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(fileKey),
	}, s3.WithPresignExpires(capabilityValidity))
	if err != nil {
		return "", fmt.Errorf("presign delete: %w", err)
	}

	return signed.URL, nil
}

// keyFromLocation extracts the object key back out of a stored HTTPS
// location.
func keyFromLocation(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid object location %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("invalid object location %q: empty key", location)
	}
	return key, nil
}
