// Package storage хранит вложения заметок в S3-совместимом объектном хранилище.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithymiddleware "github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"semantic_notes_go/apperrors"
)

// UploadPrefix - общий префикс ключей вложений.
const UploadPrefix = "uploads/"

// ObjectStorage - загрузка и удаление объектов по ключу.
type ObjectStorage interface {
	Upload(ctx context.Context, body []byte, key, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Config - параметры подключения к бакету.
type Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // пусто - AWS
	MaxAttempts     int    // 0 - значение SDK по умолчанию
}

// S3Storage реализует ObjectStorage поверх aws-sdk-go-v2.
type S3Storage struct {
	bucket string
	region string
	client *s3.Client
}

// NewS3Storage проверяет конфигурацию и создает клиента.
// Отсутствие бакета или региона - ошибка конфигурации, фатальная при старте.
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, apperrors.StorageConfiguration("S3_BUCKET_NAME environment variable is not set")
	}
	if cfg.Region == "" {
		return nil, apperrors.StorageConfiguration("S3_REGION environment variable is not set")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.MaxAttempts > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Printf("S3 storage configured: bucket=%s region=%s", cfg.Bucket, cfg.Region)
	return &S3Storage{bucket: cfg.Bucket, region: cfg.Region, client: client}, nil
}

// Upload кладет объект в бакет и возвращает его публичный URL.
func (s *S3Storage) Upload(ctx context.Context, body []byte, key, contentType string) (string, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.StorageUpload(err, key)
	}
	if status := statusCode(out.ResultMetadata); status != http.StatusOK {
		return "", apperrors.StorageUpload(fmt.Errorf("unexpected status %d", status), key)
	}

	return s.PublicURL(key), nil
}

// Delete удаляет объект. S3 отвечает 204, некоторые совместимые хранилища - 200.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	out, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.StorageDelete(err, key)
	}
	if status := statusCode(out.ResultMetadata); status != http.StatusNoContent && status != http.StatusOK {
		return apperrors.StorageDelete(fmt.Errorf("unexpected status %d", status), key)
	}
	return nil
}

// PublicURL - детерминированный URL объекта.
func (s *S3Storage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func statusCode(md smithymiddleware.Metadata) int {
	if rsp, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && rsp.Response != nil {
		return rsp.StatusCode
	}
	return 0
}

// ObjectKey строит ключ вложения: uploads/<unix-ms>-<имя файла>.
func ObjectKey(now time.Time, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s%d-%s", UploadPrefix, now.UnixMilli(), name)
}

// KeyFromURL восстанавливает ключ объекта по URL вложения.
func KeyFromURL(url string) (string, error) {
	idx := strings.LastIndex(url, "/")
	name := url[idx+1:]
	if name == "" {
		return "", errors.New("attachment url has no file name: " + url)
	}
	return UploadPrefix + name, nil
}
