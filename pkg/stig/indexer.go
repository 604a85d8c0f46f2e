package stig

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

// CacheFilename is the index cache written at the library root.
const CacheFilename = "stig_library_index.json"

const cacheVersion = "1.0"

// ErrBenchmarkNotFound is returned when a benchmark ID is not in the
// catalog or its ZIP has gone missing from the library folder.
var ErrBenchmarkNotFound = errors.New("benchmark not found in library")

// IndexStats summarizes the last scan.
type IndexStats struct {
	TotalZips   int        `json:"total_zips"`
	ParsedOK    int        `json:"parsed_ok"`
	ParseErrors int        `json:"parse_errors"`
	TotalRules  int        `json:"total_rules"`
	LastIndexed *time.Time `json:"last_indexed,omitempty"`
}

// LibrarySummary is a rollup of the indexed library, suitable for startup
// logging and status endpoints.
type LibrarySummary struct {
	LibraryPath      string         `json:"library_path"`
	TotalEntries     int            `json:"total_entries"`
	STIGs            int            `json:"stigs"`
	SRGs             int            `json:"srgs"`
	TotalRules       int            `json:"total_rules"`
	PlatformsCovered map[string]int `json:"platforms_covered"`
	LastIndexed      *time.Time     `json:"last_indexed,omitempty"`
}

type cacheFile struct {
	Version   string          `json:"version"`
	IndexedAt *time.Time      `json:"indexed_at,omitempty"`
	Stats     IndexStats      `json:"stats"`
	Catalog   catalogDocument `json:"catalog"`
}

// Indexer scans a folder of DISA STIG ZIPs and maintains the catalog plus
// an on-disk cache so restarts skip the scan. Rule bodies are parsed on
// demand and memoized; the catalog itself holds only entry metadata.
type Indexer struct {
	libraryPath string
	logger      logger.Logger

	mu      sync.Mutex
	catalog *Catalog
	rules   map[string][]models.STIGRule
	stats   IndexStats
}

// NewIndexer returns an indexer rooted at libraryPath. Call Load or Rescan
// before using the catalog.
func NewIndexer(libraryPath string, log logger.Logger) *Indexer {
	return &Indexer{
		libraryPath: libraryPath,
		logger:      log,
		catalog:     NewCatalog(libraryPath),
		rules:       make(map[string][]models.STIGRule),
	}
}

// CachePath is where the index cache lives.
func (ix *Indexer) CachePath() string {
	return filepath.Join(ix.libraryPath, CacheFilename)
}

// Load returns the catalog from the cache if one is present and readable,
// otherwise it falls back to a full rescan.
func (ix *Indexer) Load() (*Catalog, error) {
	if ix.loadCache() {
		return ix.Catalog(), nil
	}

	return ix.Rescan()
}

// Rescan walks the library, rebuilds the catalog, and rewrites the cache.
// Per-ZIP parse failures are counted and skipped; only a failure to walk
// the library itself aborts.
func (ix *Indexer) Rescan() (*Catalog, error) {
	zips, err := ix.findZips()
	if err != nil {
		return nil, fmt.Errorf("scan stig library %s: %w", ix.libraryPath, err)
	}

	catalog := NewCatalog(ix.libraryPath)
	stats := IndexStats{TotalZips: len(zips)}

	ix.logger.Info().
		Int("zip_count", len(zips)).
		Str("library_path", ix.libraryPath).
		Msg("Scanning STIG library")

	for _, zipPath := range zips {
		entry, rules, err := parseZip(zipPath)
		if err != nil {
			stats.ParseErrors++
			ix.logger.Warn().Err(err).Str("zip", filepath.Base(zipPath)).Msg("Skipping unparseable STIG archive")

			continue
		}

		catalog.Add(entry)

		stats.ParsedOK++
		stats.TotalRules += len(rules)
	}

	now := time.Now().UTC()
	stats.LastIndexed = &now

	ix.mu.Lock()
	ix.catalog = catalog
	ix.stats = stats
	ix.rules = make(map[string][]models.STIGRule)
	ix.mu.Unlock()

	ix.logger.Info().
		Int("parsed_ok", stats.ParsedOK).
		Int("parse_errors", stats.ParseErrors).
		Int("total_rules", stats.TotalRules).
		Msg("STIG library indexed")

	if err := ix.saveCache(); err != nil {
		ix.logger.Error().Err(err).Str("path", ix.CachePath()).Msg("Failed to write index cache")
	}

	return catalog, nil
}

// Catalog returns the current catalog.
func (ix *Indexer) Catalog() *Catalog {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.catalog
}

// Stats returns a copy of the last scan's statistics.
func (ix *Indexer) Stats() IndexStats {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	return ix.stats
}

// Rules returns the rule list for a benchmark, re-parsing its ZIP on the
// first request and memoizing after that.
func (ix *Indexer) Rules(benchmarkID string) ([]models.STIGRule, error) {
	ix.mu.Lock()
	cached, ok := ix.rules[benchmarkID]
	catalog := ix.catalog
	ix.mu.Unlock()

	if ok {
		return cached, nil
	}

	entry, ok := catalog.Entry(benchmarkID)
	if !ok || entry.ZipFilename == "" {
		return nil, fmt.Errorf("%w: %s", ErrBenchmarkNotFound, benchmarkID)
	}

	zipPath, err := ix.locateZip(entry.ZipFilename)
	if err != nil {
		return nil, err
	}

	_, rules, err := parseZip(zipPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", entry.ZipFilename, err)
	}

	ix.mu.Lock()
	ix.rules[benchmarkID] = rules
	ix.mu.Unlock()

	return rules, nil
}

// Summary rolls up the indexed library by type and platform.
func (ix *Indexer) Summary() LibrarySummary {
	ix.mu.Lock()
	catalog := ix.catalog
	stats := ix.stats
	ix.mu.Unlock()

	summary := LibrarySummary{
		LibraryPath:      ix.libraryPath,
		TotalEntries:     catalog.Len(),
		TotalRules:       stats.TotalRules,
		PlatformsCovered: make(map[string]int),
		LastIndexed:      stats.LastIndexed,
	}

	for _, entry := range catalog.Entries() {
		if entry.STIGType == models.STIGTypeSTIG {
			summary.STIGs++
		} else {
			summary.SRGs++
		}

		for _, platform := range entry.Platforms {
			summary.PlatformsCovered[string(platform)]++
		}
	}

	return summary
}

func (ix *Indexer) findZips() ([]string, error) {
	var zips []string

	err := filepath.WalkDir(ix.libraryPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
			zips = append(zips, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return zips, nil
}

// locateZip resolves a cached ZIP filename, searching subdirectories when
// the archive moved since the last scan.
func (ix *Indexer) locateZip(filename string) (string, error) {
	direct := filepath.Join(ix.libraryPath, filename)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	var found string

	err := filepath.WalkDir(ix.libraryPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && d.Name() == filename {
			found = path

			return fs.SkipAll
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search for %s: %w", filename, err)
	}

	if found == "" {
		return "", fmt.Errorf("%w: archive %s missing", ErrBenchmarkNotFound, filename)
	}

	return found, nil
}

func (ix *Indexer) loadCache() bool {
	data, err := os.ReadFile(ix.CachePath())
	if err != nil {
		return false
	}

	var cache cacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		ix.logger.Warn().Err(err).Str("path", ix.CachePath()).Msg("Ignoring unreadable index cache")

		return false
	}

	if cache.Version != cacheVersion {
		ix.logger.Warn().Str("version", cache.Version).Msg("Ignoring index cache with unknown version")

		return false
	}

	catalog := catalogFromDocument(cache.Catalog)

	ix.mu.Lock()
	ix.catalog = catalog
	ix.stats = cache.Stats
	ix.rules = make(map[string][]models.STIGRule)
	ix.mu.Unlock()

	ix.logger.Info().
		Int("entries", catalog.Len()).
		Str("path", ix.CachePath()).
		Msg("Loaded STIG index cache")

	return true
}

func (ix *Indexer) saveCache() error {
	ix.mu.Lock()
	cache := cacheFile{
		Version:   cacheVersion,
		IndexedAt: ix.stats.LastIndexed,
		Stats:     ix.stats,
		Catalog:   ix.catalog.document(),
	}
	ix.mu.Unlock()

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index cache: %w", err)
	}

	if err := os.WriteFile(ix.CachePath(), data, 0o644); err != nil {
		return fmt.Errorf("write index cache: %w", err)
	}

	return nil
}

// parseZip opens one STIG archive, finds the XCCDF document inside, and
// parses it.
func parseZip(path string) (models.STIGEntry, []models.STIGRule, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return models.STIGEntry{}, nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if !isXCCDFName(file.Name) {
			continue
		}

		data, err := readZipFile(file)
		if err != nil {
			return models.STIGEntry{}, nil, fmt.Errorf("read %s: %w", file.Name, err)
		}

		entry, rules, err := parseXCCDF(data)
		if err != nil {
			return models.STIGEntry{}, nil, fmt.Errorf("%s: %w", file.Name, err)
		}

		entry.ZipFilename = filepath.Base(path)
		entry.XCCDFPath = file.Name

		return entry, rules, nil
	}

	return models.STIGEntry{}, nil, fmt.Errorf("no xccdf document in archive")
}

// DISA names the document either "*-xccdf.xml" or "U_<name>_STIG_*.xml".
func isXCCDFName(name string) bool {
	base := strings.ToLower(filepath.Base(name))

	if strings.HasSuffix(base, "xccdf.xml") {
		return true
	}

	return strings.Contains(base, "_stig_") && strings.HasSuffix(base, ".xml")
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
