// Package upload stores article images on S3 compatible object storage.
package upload

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/log"
)

const (
	idAlphabet        = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength          = 10
	maxNameLength     = 64
	maxBatchFiles     = 10
	uploadConcurrency = 4
	presignExpiry     = 15 * time.Minute
	// DefaultMaxFileBytes used when no limit is configured
	DefaultMaxFileBytes = 10 << 20
)

var (
	// ErrForbidden only staff may manage uploads
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput file is empty, too large or of an unsupported type
	ErrInvalidInput = errors.New("invalid input")

	unsafeNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	objectNameRegexp = regexp.MustCompile(`^\d+-[a-z0-9]+-[a-zA-Z0-9._-]+$`)

	allowedExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
)

// ObjectStore is the subset of *minio.Client used by the service
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader,
		objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string,
		expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Settings of the upload bucket
type Settings struct {
	Bucket string
	// Prefix is prepended to every object key
	Prefix string
	// PublicURL is the base url of the bucket, empty means files are served under /uploads
	PublicURL    string
	MaxFileBytes int64
}

// File to upload
type File struct {
	Name string
	Data []byte
}

// Object stored file
type Object struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Service uploads
type Service struct {
	store  ObjectStore
	cfg    Settings
	logger logSDK.Logger
	clock  func() time.Time
}

// NewService create upload service
func NewService(store ObjectStore, cfg Settings, logger logSDK.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	if logger == nil {
		logger = log.Logger.Named("upload_service")
	}

	return &Service{store: store, cfg: cfg, logger: logger, clock: gutils.Clock.GetUTCNow}, nil
}

func canUpload(actor models.Actor) bool {
	return !actor.IsAnonymous() &&
		actor.HasRole(models.RoleAdministrator, models.RoleJournalist)
}

// sanitizeName keeps a short, url safe version of the original file name
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeNameRegexp.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = "file"
	}
	if len(name) > maxNameLength {
		name = name[len(name)-maxNameLength:]
	}

	return name
}

func (s *Service) objectKey(filename string) string {
	if s.cfg.Prefix == "" {
		return filename
	}
	return s.cfg.Prefix + "/" + filename
}

func (s *Service) objectURL(filename string) string {
	if s.cfg.PublicURL == "" {
		return "/uploads/" + filename
	}
	return s.cfg.PublicURL + "/" + s.objectKey(filename)
}

func (s *Service) validate(f File) (contentType string, err error) {
	if len(f.Data) == 0 {
		return "", errors.Wrapf(ErrInvalidInput, "file %q is empty", f.Name)
	}
	if int64(len(f.Data)) > s.cfg.MaxFileBytes {
		return "", errors.Wrapf(ErrInvalidInput, "file %q exceeds %d bytes", f.Name, s.cfg.MaxFileBytes)
	}
	if !allowedExts[strings.ToLower(path.Ext(f.Name))] {
		return "", errors.Wrapf(ErrInvalidInput, "file %q is not an image", f.Name)
	}

	contentType = http.DetectContentType(f.Data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.Wrapf(ErrInvalidInput, "file %q has content type %s", f.Name, contentType)
	}

	return contentType, nil
}

func (s *Service) put(ctx context.Context, f File) (*Object, error) {
	contentType, err := s.validate(f)
	if err != nil {
		return nil, err
	}

	id, err := nanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate object id")
	}
	filename := strconv.FormatInt(s.clock().UnixMilli(), 10) + "-" + id + "-" + sanitizeName(f.Name)
	objkey := s.objectKey(filename)

	if _, err = s.store.PutObject(ctx,
		s.cfg.Bucket,
		objkey,
		bytes.NewReader(f.Data),
		int64(len(f.Data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	); err != nil {
		return nil, errors.Wrapf(err, "put object %q", objkey)
	}

	s.logger.Info("upload to s3", zap.String("objkey", objkey), zap.Int("size", len(f.Data)))
	return &Object{
		Filename:    filename,
		URL:         s.objectURL(filename),
		Size:        int64(len(f.Data)),
		ContentType: contentType,
	}, nil
}

// Upload stores one image, administrators and journalists only
func (s *Service) Upload(ctx context.Context, actor models.Actor, f File) (*Object, error) {
	if !canUpload(actor) {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot upload", actor.ID)
	}

	return s.put(ctx, f)
}

// UploadMultiple stores images concurrently, results keep the input order.
//
// Either every file is stored or none: objects already written are removed on failure.
func (s *Service) UploadMultiple(ctx context.Context, actor models.Actor, files []File) ([]*Object, error) {
	if !canUpload(actor) {
		return nil, errors.Wrapf(ErrForbidden, "actor %d cannot upload", actor.ID)
	}
	if len(files) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "no files provided")
	}
	if len(files) > maxBatchFiles {
		return nil, errors.Wrapf(ErrInvalidInput, "at most %d files per batch", maxBatchFiles)
	}
	for _, f := range files {
		if _, err := s.validate(f); err != nil {
			return nil, err
		}
	}

	objects := make([]*Object, len(files))
	pool, gctx := errgroup.WithContext(ctx)
	pool.SetLimit(uploadConcurrency)
	for i, f := range files {
		pool.Go(func() (err error) {
			objects[i], err = s.put(gctx, f)
			return err
		})
	}

	if err := pool.Wait(); err != nil {
		for _, obj := range objects {
			if obj == nil {
				continue
			}
			if rmErr := s.store.RemoveObject(context.WithoutCancel(ctx),
				s.cfg.Bucket, s.objectKey(obj.Filename), minio.RemoveObjectOptions{}); rmErr != nil {
				s.logger.Warn("remove partially uploaded object",
					zap.String("filename", obj.Filename), zap.Error(rmErr))
			}
		}
		return nil, errors.Wrap(err, "upload files")
	}

	return objects, nil
}

// Link returns a short lived download url of a stored image, readable by anyone
func (s *Service) Link(ctx context.Context, filename string) (*url.URL, error) {
	if !objectNameRegexp.MatchString(filename) {
		return nil, errors.Wrapf(ErrInvalidInput, "filename %q", filename)
	}

	u, err := s.store.PresignedGetObject(ctx, s.cfg.Bucket, s.objectKey(filename), presignExpiry, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "presign object %q", filename)
	}

	return u, nil
}

// Delete removes a stored image, removing a missing object is not an error
func (s *Service) Delete(ctx context.Context, actor models.Actor, filename string) error {
	if !canUpload(actor) {
		return errors.Wrapf(ErrForbidden, "actor %d cannot delete uploads", actor.ID)
	}
	if !objectNameRegexp.MatchString(filename) {
		return errors.Wrapf(ErrInvalidInput, "filename %q", filename)
	}

	objkey := s.objectKey(filename)
	if err := s.store.RemoveObject(ctx, s.cfg.Bucket, objkey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %q", objkey)
	}

	s.logger.Info("remove from s3", zap.String("objkey", objkey), zap.Int64("actor", actor.ID))
	return nil
}
