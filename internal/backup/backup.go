// Package backup uploads encrypted snapshots of the SQLite database to
// S3-compatible storage on a fixed interval.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds backup manager configuration.
type Config struct {
	Bucket     string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Passphrase string
	Interval   time.Duration
	DBPath     string
}

// Status holds the current backup manager status.
type Status struct {
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastKey    string     `json:"last_key,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// Manager runs scheduled encrypted backups.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db     *sql.DB
	client s3Client
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	m := &Manager{cfg: cfg, db: db, logger: logger}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		m.client = newS3Client(cfg)
	}
	return m
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager has working S3 configuration.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the backup loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// RunNow checkpoints the database, encrypts a copy and uploads it. It
// returns the S3 object key of the uploaded backup.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	if !m.Enabled() {
		return "", fmt.Errorf("backup not configured: S3 credentials missing")
	}

	m.setStatus(Status{InProgress: true})

	key := fmt.Sprintf("backups/%s-%s.db.enc", time.Now().UTC().Format("2006-01-02T150405Z"), uuid.NewString()[:8])

	tmpDir := os.TempDir()
	dbCopy := filepath.Join(tmpDir, fmt.Sprintf("grana-backup-%d.db", time.Now().UnixNano()))
	encFile := dbCopy + ".enc"
	defer os.Remove(dbCopy)
	defer os.Remove(encFile)

	// Checkpoint WAL so the file copy is complete and consistent.
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		m.setStatus(Status{Error: err.Error()})
		return "", fmt.Errorf("wal checkpoint: %w", err)
	}
	if err := copyFile(m.cfg.DBPath, dbCopy); err != nil {
		m.setStatus(Status{Error: err.Error()})
		return "", fmt.Errorf("copy database: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		m.setStatus(Status{Error: err.Error()})
		return "", err
	}
	if err := EncryptFile(dbCopy, encFile, m.cfg.Passphrase, salt); err != nil {
		m.setStatus(Status{Error: err.Error()})
		return "", fmt.Errorf("encrypt backup: %w", err)
	}

	f, err := os.Open(encFile)
	if err != nil {
		m.setStatus(Status{Error: err.Error()})
		return "", fmt.Errorf("open encrypted file: %w", err)
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		m.setStatus(Status{Error: err.Error()})
		return "", fmt.Errorf("upload backup: %w", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{LastBackup: &now, LastKey: key})
	m.logger.Info("backup uploaded", "key", key)
	return key, nil
}

// Restore downloads and decrypts a backup into dstPath.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	if !m.Enabled() {
		return fmt.Errorf("backup not configured: S3 credentials missing")
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download backup: %w", err)
	}
	defer out.Body.Close()

	encFile := filepath.Join(os.TempDir(), fmt.Sprintf("grana-restore-%d.db.enc", time.Now().UnixNano()))
	defer os.Remove(encFile)

	f, err := os.OpenFile(encFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	f.Close()

	if err := DecryptFile(encFile, dstPath, m.cfg.Passphrase); err != nil {
		return fmt.Errorf("decrypt backup: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
