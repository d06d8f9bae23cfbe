package measurements

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"measurement-extractor/core/config"
	"measurement-extractor/core/reconcile"
	"measurement-extractor/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunOptions tune a single extraction run.
type RunOptions struct {
	OutputOptions
	// Upload copies the output table to object storage.
	Upload bool
	// Persist stores the report in the run store.
	Persist bool
	// Isolate writes the output under a directory named after the run id, so concurrent
	// runs never share a destination. Explicit and document outputs are refused.
	Isolate bool
}

// Service runs extractions.
type Service struct {
	opener  *Opener
	client  storage.Client
	store   *Store
	extract config.ExtractConfig
	storage storage.Config
	logger  *zap.Logger
}

// NewService creates a measurements service. client and store may be nil; the features
// that need them then fail with ErrStorageDisabled or ErrStoreDisabled.
func NewService(client storage.Client, store *Store, extract config.ExtractConfig, storageCfg storage.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		opener:  NewOpener(client),
		client:  client,
		store:   store,
		extract: extract,
		storage: storageCfg,
		logger:  logger,
	}
}

// HasStore reports whether runs can be persisted.
func (s *Service) HasStore() bool {
	return s.store != nil
}

// Run extracts doc's items, writes the output table and builds the report.
// When publishing fails the report is returned along with the error.
func (s *Service) Run(ctx context.Context, doc *Document, opts RunOptions) (*Report, error) {
	if opts.Upload && s.client == nil {
		return nil, ErrStorageDisabled
	}
	if opts.Persist && s.store == nil {
		return nil, ErrStoreDisabled
	}
	if opts.Isolate && (opts.Output != "" || doc.Output != "") {
		return nil, configErrorf("output cannot be chosen for isolated runs")
	}

	runID := uuid.NewString()
	l := s.logger.With(zap.String("run_id", runID))
	l.Info("Scanning records", zap.String("source", doc.Chart), zap.Int("max_rows", opts.MaxRows))

	adms, stats, err := s.scan(ctx, doc, opts.MaxRows)
	if err != nil {
		return nil, err
	}
	l.Info("Scan finished",
		zap.Int("records_scanned", stats.RecordsScanned),
		zap.Int("error_rows", stats.ErrorRows),
		zap.Int("matched_rows", stats.MatchedRows),
		zap.Bool("cutoff_reached", stats.CutoffReached),
	)

	outcome := reconcile.Resolve(adms, doc.Items, stats.ItemsObserved)

	outOpts := opts.OutputOptions
	if opts.Isolate {
		outOpts.RunDir = runID
	}
	out := doc.OutputPath(s.extract, outOpts)
	if err := WriteTable(out, outcome.Header, outcome.Rows); err != nil {
		return nil, err
	}
	l.Info("Wrote output table", zap.String("output", out), zap.Int("rows", len(outcome.Rows)))

	report := BuildReport(adms, doc.Items, outcome, stats)
	report.RunID = runID
	report.Source = doc.Chart
	report.Output = out
	if opts.Upload {
		report.Object = s.objectURI(runID, out)
	}

	if err := s.publish(ctx, report, opts); err != nil {
		l.Error("Publishing failed", zap.Error(err))
		return report, err
	}
	return report, nil
}

func (s *Service) scan(ctx context.Context, doc *Document, maxRows int) (*reconcile.Admissions, ScanStats, error) {
	rc, err := s.opener.Open(ctx, doc.Chart)
	if err != nil {
		return nil, ScanStats{}, err
	}
	defer rc.Close()

	return Scan(ctx, rc, doc.Items, maxRows)
}

// publish uploads and persists concurrently.
func (s *Service) publish(ctx context.Context, report *Report, opts RunOptions) error {
	g, gctx := errgroup.WithContext(ctx)

	if opts.Upload {
		g.Go(func() error {
			return s.upload(gctx, report.Output, report.RunID)
		})
	}
	if opts.Persist {
		g.Go(func() error {
			return s.store.Save(gctx, report)
		})
	}

	return g.Wait()
}

func (s *Service) objectName(runID, file string) string {
	return path.Join(s.storage.Prefix, runID, filepath.Base(file))
}

func (s *Service) objectURI(runID, file string) string {
	return storage.Scheme + s.storage.Bucket + "/" + s.objectName(runID, file)
}

func (s *Service) upload(ctx context.Context, file, runID string) error {
	exists, err := s.client.BucketExists(ctx, s.storage.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.storage.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.storage.Bucket, minio.MakeBucketOptions{Region: s.storage.Region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.storage.Bucket, err)
		}
		s.logger.Info("Created bucket", zap.String("bucket", s.storage.Bucket))
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open output for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output: %w", err)
	}

	name := s.objectName(runID, file)
	_, err = s.client.PutObject(ctx, s.storage.Bucket, name, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	s.logger.Info("Uploaded output", zap.String("bucket", s.storage.Bucket), zap.String("object", name))
	return nil
}
