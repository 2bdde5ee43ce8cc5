package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"psgc-api/internal/logger"
	"psgc-api/internal/metrics"
	"psgc-api/internal/sheet"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// ErrSyncInProgress：已有同步在执行
var ErrSyncInProgress = errors.New("sync already in progress")

// FailureKind：同步失败所处阶段，命令行据此决定退出码
type FailureKind int

const (
	FailureValidation FailureKind = 1
	FailureDownload   FailureKind = 2
	FailureImport     FailureKind = 3
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureDownload:
		return "download"
	case FailureImport:
		return "import"
	}
	return "unknown"
}

// SyncError：带阶段的同步错误
type SyncError struct {
	Kind    FailureKind
	Err     error
	Details []string
}

func (e *SyncError) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *SyncError) Unwrap() error { return e.Err }

// ExitCode：成功 0；校验或未知错误 1；下载 2；导入 3
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *SyncError
	if errors.As(err, &se) {
		return int(se.Kind)
	}
	return 1
}

// SyncOptions：Path 指定本地文件时跳过抓取与下载；URL 指定时跳过抓取；Force 跳过结构校验
type SyncOptions struct {
	Path       string
	URL        string
	Force      bool
	SnapshotID int64
}

type latestFinder interface {
	Latest(ctx context.Context) (Publication, error)
}

type fileFetcher interface {
	Download(ctx context.Context, raw string) (string, error)
}

// Syncer：下载 -> 校验 -> 导入 的完整同步流程
// 约束：同一进程内同一时刻只允许一个同步，命令行、定时任务与管理接口共用
type Syncer struct {
	importer   *Importer
	crawler    latestFinder
	downloader fileFetcher
	sheet      string
	newBackOff func() backoff.BackOff

	mu sync.Mutex
}

func NewSyncer(im *Importer, c *Crawler, d *Downloader, sheetName string) *Syncer {
	if sheetName == "" {
		sheetName = DefaultSheet
	}
	s := &Syncer{importer: im, sheet: sheetName, newBackOff: defaultBackOff}
	// nil 指针不能直接放进接口字段，否则判空失效
	if c != nil {
		s.crawler = c
	}
	if d != nil {
		s.downloader = d
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute
	return backoff.WithMaxRetries(bo, 3)
}

// retry：网络类错误重试，ErrInvalidURL / ErrNoPublication 立即失败
func (s *Syncer) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && (errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrNoPublication) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(s.newBackOff(), ctx))
}

// Sync：执行一次同步；并发调用返回 ErrSyncInProgress
func (s *Syncer) Sync(ctx context.Context, opts SyncOptions) (Result, error) {
	if !s.mu.TryLock() {
		metrics.SyncTotal.WithLabelValues("busy").Inc()
		return Result{}, ErrSyncInProgress
	}
	defer s.mu.Unlock()
	return s.run(ctx, opts)
}

// Start：后台执行同步，done 可为 nil；占用检查在返回前完成，调用方可以据此立即响应
func (s *Syncer) Start(ctx context.Context, opts SyncOptions, done func(Result, error)) error {
	if !s.mu.TryLock() {
		metrics.SyncTotal.WithLabelValues("busy").Inc()
		return ErrSyncInProgress
	}
	go func() {
		defer s.mu.Unlock()
		res, err := s.run(ctx, opts)
		if done != nil {
			done(res, err)
		}
	}()
	return nil
}

func (s *Syncer) run(ctx context.Context, opts SyncOptions) (Result, error) {
	l := logger.L()
	l.Info("sync_start", "path", opts.Path, "url", opts.URL, "force", opts.Force)
	res, err := s.sync(ctx, opts)
	outcome := "success"
	if err != nil {
		var se *SyncError
		if errors.As(err, &se) {
			outcome = se.Kind.String()
		} else {
			outcome = "error"
		}
		l.Error("sync_failed", "outcome", outcome, "err", err)
	} else {
		l.Info("sync_done", "snapshot_id", res.SnapshotID, "run_id", res.RunID)
	}
	metrics.SyncTotal.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *Syncer) sync(ctx context.Context, opts SyncOptions) (Result, error) {
	path, meta, err := s.fetch(ctx, opts)
	if err != nil {
		return Result{}, &SyncError{Kind: FailureDownload, Err: err}
	}
	meta.SnapshotID = opts.SnapshotID

	if opts.Force {
		logger.L().Info("sync_validation_skipped", "reason", "force")
	} else {
		rep := ValidateFile(path, s.sheet)
		if !rep.Valid() {
			return Result{}, &SyncError{Kind: FailureValidation, Err: errors.New("validation failed"), Details: rep.Errors}
		}
		logger.L().Info("sync_validation_ok", "path", path)
	}

	src, err := sheet.Open(path)
	if err != nil {
		return Result{}, &SyncError{Kind: FailureImport, Err: err}
	}
	defer src.Close()
	res := s.importer.Import(ctx, src, meta)
	if !res.Success {
		return res, &SyncError{Kind: FailureImport, Err: errors.New(res.Message)}
	}
	return res, nil
}

// fetch：本地文件直接使用；否则抓取（或使用给定地址）并下载
func (s *Syncer) fetch(ctx context.Context, opts SyncOptions) (string, Meta, error) {
	if opts.Path != "" {
		abs, err := filepath.Abs(opts.Path)
		if err != nil {
			return "", Meta{}, errors.Wrap(err, "resolve local path")
		}
		if _, err := os.Stat(abs); err != nil {
			return "", Meta{}, errors.Wrapf(err, "local file not found: %s", opts.Path)
		}
		logger.L().Info("sync_local_file", "path", abs)
		return abs, Meta{Filename: filepath.Base(abs)}, nil
	}

	link := opts.URL
	if link == "" {
		if s.crawler == nil {
			return "", Meta{}, errors.New("no crawler configured")
		}
		var pub Publication
		err := s.retry(ctx, func() error {
			var e error
			pub, e = s.crawler.Latest(ctx)
			return e
		})
		if err != nil {
			return "", Meta{}, err
		}
		link = pub.URL
	}
	if s.downloader == nil {
		return "", Meta{}, errors.New("no downloader configured")
	}
	var path string
	err := s.retry(ctx, func() error {
		var e error
		path, e = s.downloader.Download(ctx, link)
		return e
	})
	if err != nil {
		return "", Meta{}, err
	}
	logger.L().Info("sync_download_ok", "path", path)
	return path, Meta{Filename: filepath.Base(path), DownloadURL: link}, nil
}
