package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Storage handles video and thumbnail uploads to AWS S3
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
	baseURL   string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// PresignedUpload contains a presigned PUT URL for direct client upload
type PresignedUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(region, bucket, baseURL string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		region:    region,
		baseURL:   baseURL,
	}, nil
}

// PresignVideoUpload generates a presigned PUT URL so clients upload
// video bytes directly to S3 instead of through the API
func (s *S3Storage) PresignVideoUpload(ctx context.Context, userID, originalFilename string) (*PresignedUpload, error) {
	fileID := uuid.New().String()
	extension := filepath.Ext(originalFilename)
	if extension == "" {
		extension = ".mp4"
	}

	// Organized folder structure: videos/{year}/{month}/{userID}/{fileID}.mp4
	now := time.Now()
	key := fmt.Sprintf("videos/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, fileID, extension)

	const uploadTTL = 15 * time.Minute
	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(getContentType(extension)),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  now.Format(time.RFC3339),
			"file-type":         "video",
		},
	}, s3.WithPresignExpires(uploadTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		Key:       key,
		UploadURL: presigned.URL,
		PublicURL: s.ObjectURL(key),
		ExpiresAt: now.Add(uploadTTL),
	}, nil
}

// UploadThumbnail uploads a thumbnail image next to its video key
func (s *S3Storage) UploadThumbnail(ctx context.Context, imageData []byte, videoKey string) (*UploadResult, error) {
	thumbKey := strings.Replace(videoKey, filepath.Ext(videoKey), "_thumb.jpg", 1)

	putObjectInput := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(thumbKey),
		Body:         bytes.NewReader(imageData),
		ContentType:  aws.String("image/jpeg"),
		CacheControl: aws.String("max-age=86400"),

		Metadata: map[string]string{
			"file-type":     "thumbnail",
			"related-video": videoKey,
		},
	}

	_, err := s.client.PutObject(ctx, putObjectInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	return &UploadResult{
		Key:    thumbKey,
		URL:    s.ObjectURL(thumbKey),
		Bucket: s.bucket,
		Region: s.region,
		Size:   int64(len(imageData)),
	}, nil
}

// DeleteFile deletes a file from S3
func (s *S3Storage) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (s *S3Storage) CheckBucketAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", s.bucket, err)
	}

	return nil
}

// ObjectURL returns the public URL for an object key
func (s *S3Storage) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.baseURL, "/"), key)
}

// getContentType returns the appropriate MIME type for file extensions
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
