package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	sc "github.com/dmitrijs2005/ucredit/internal/server/config"
	"github.com/dmitrijs2005/ucredit/internal/server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const exportURLValidity = 15 * time.Minute

// Plan is the exported snapshot of a user's plan.
type Plan struct {
	User          *models.User          `json:"user"`
	Distributions []*models.Distribution `json:"distributions"`
	Courses       []*models.Course       `json:"courses"`
	ExportedAt    time.Time              `json:"exported_at"`
}

// PlanExport tells the caller where the uploaded snapshot can be fetched.
type PlanExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlanExportService uploads plan snapshots to S3-compatible storage.
type PlanExportService struct {
	users         *UserService
	distributions *DistributionService
	courses       *CourseService
	config        *sc.Config
}

func NewPlanExportService(users *UserService, distributions *DistributionService, courses *CourseService, config *sc.Config) *PlanExportService {
	return &PlanExportService{users: users, distributions: distributions, courses: courses, config: config}
}

func (s *PlanExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func exportKey(userID string, at time.Time) string {
	return fmt.Sprintf("plans/%s/%s.json", userID, at.UTC().Format("20060102T150405Z"))
}

// Export uploads the user's current plan as JSON and returns a presigned
// GET URL for it.
func (s *PlanExportService) Export(ctx context.Context, userID string) (*PlanExport, error) {
	plan, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := exportKey(userID, plan.ExportedAt)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload plan: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportURLValidity))
	if err != nil {
		return nil, fmt.Errorf("presign plan: %w", err)
	}

	return &PlanExport{Key: key, URL: req.URL, ExpiresAt: plan.ExportedAt.Add(exportURLValidity)}, nil
}

func (s *PlanExportService) snapshot(ctx context.Context, userID string) (*Plan, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dists, err := s.distributions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Plan{User: user, Distributions: dists, Courses: courses, ExportedAt: time.Now().UTC()}, nil
}
