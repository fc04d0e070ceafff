package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/logger"
)

const ParcelImageFolder = "parcels"

var ErrUnsupportedImage = errors.New("unsupported image type")

// Storage keeps uploaded parcel images
type Storage interface {
	// Upload stores the file under folder and returns its storage path
	Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
	// URL turns a storage path into a URL clients can fetch
	URL(storagePath string) string
	Delete(ctx context.Context, storagePath string) error
}

// NewStorage picks S3 when AWS credentials are configured and the local upload directory otherwise
func NewStorage(cfg *config.StorageConfig, log *logger.Logger) (Storage, error) {
	if cfg.S3Enabled() {
		s, err := NewS3Storage(cfg)
		if err != nil {
			return nil, err
		}
		log.WithFields(logger.Fields{"bucket": cfg.S3Bucket, "region": cfg.AWSRegion}).Info("Using S3 image storage")
		return s, nil
	}

	s, err := NewLocalStorage(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	log.WithFields(logger.Fields{"dir": cfg.UploadDir}).Warn("AWS S3 not configured, using local image storage")
	return s, nil
}

// readImage loads the upload and checks that its content is an image
func readImage(file *multipart.FileHeader) ([]byte, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, src); err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	contentType := http.DetectContentType(buffer.Bytes())
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", ErrUnsupportedImage
	}
	return buffer.Bytes(), contentType, nil
}

func objectName(file *multipart.FileHeader) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
}

type S3Storage struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	bucket   string
	region   string
}

func NewS3Storage(cfg *config.StorageConfig) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name not configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Storage{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   cfg.S3Bucket,
		region:   cfg.AWSRegion,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	data, contentType, err := readImage(file)
	if err != nil {
		return "", err
	}

	key := path.Join(folder, objectName(file))
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

// URL builds the public object URL; the bucket policy grants read access
func (s *S3Storage) URL(storagePath string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, storagePath)
}

func (s *S3Storage) Delete(ctx context.Context, storagePath string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	})
	return err
}

// LocalStorage writes images below a directory that the router serves under /uploads
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(dir, ParcelImageFolder), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Upload(_ context.Context, file *multipart.FileHeader, folder string) (string, error) {
	data, _, err := readImage(file)
	if err != nil {
		return "", err
	}

	folderPath := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %w", err)
	}

	name := objectName(file)
	if err := os.WriteFile(filepath.Join(folderPath, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return path.Join(folder, name), nil
}

func (s *LocalStorage) URL(storagePath string) string {
	u, err := url.JoinPath(s.baseURL, "uploads", storagePath)
	if err != nil {
		return s.baseURL + "/uploads/" + storagePath
	}
	return u
}

func (s *LocalStorage) Delete(_ context.Context, storagePath string) error {
	target := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+storagePath)))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
