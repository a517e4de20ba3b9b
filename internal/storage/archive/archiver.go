package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harlowe/vigil/internal/monitor"
)

// Archiver serializes terminal monitoring results into a Storage backend.
// Results are laid out as results/<symbol>/<utc timestamp>_<run id>.json.
type Archiver struct {
	storage Storage
	log     *zap.Logger
}

// NewArchiver creates an archiver over the given backend.
func NewArchiver(storage Storage, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{storage: storage, log: log}
}

// SaveResult archives one terminal result and returns the storage path.
func (a *Archiver) SaveResult(ctx context.Context, runID string, res monitor.Result) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result for %s: %w", res.Symbol, err)
	}

	path := fmt.Sprintf("results/%s/%s_%s.json",
		res.Symbol, time.Now().UTC().Format("20060102T150405"), runID)
	if err := a.storage.Write(ctx, path, data); err != nil {
		return "", fmt.Errorf("archiving result for %s: %w", res.Symbol, err)
	}

	a.log.Debug("result archived",
		zap.String("symbol", res.Symbol),
		zap.String("path", path),
	)
	return path, nil
}

// SaveSummary archives a coordinator summary and returns the storage path.
func (a *Archiver) SaveSummary(ctx context.Context, summary monitor.Summary) (string, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	path := fmt.Sprintf("summaries/%s.json", time.Now().UTC().Format("20060102T150405"))
	if err := a.storage.Write(ctx, path, data); err != nil {
		return "", fmt.Errorf("archiving summary: %w", err)
	}
	return path, nil
}

// LoadResult reads an archived result back from storage.
func (a *Archiver) LoadResult(ctx context.Context, path string) (*monitor.Result, error) {
	data, err := a.storage.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading archived result %s: %w", path, err)
	}
	var res monitor.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding archived result %s: %w", path, err)
	}
	return &res, nil
}

// ListResults returns the archive paths for one symbol, or all symbols
// when symbol is empty.
func (a *Archiver) ListResults(ctx context.Context, symbol string) ([]string, error) {
	prefix := "results"
	if symbol != "" {
		prefix = "results/" + symbol
	}
	return a.storage.List(ctx, prefix)
}
