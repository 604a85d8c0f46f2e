package stig

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netnynja/netnynja/pkg/logger"
	"github.com/netnynja/netnynja/pkg/models"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)

		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeLibrary lays out a small STIG library: one benchmark at the root,
// one in a subdirectory, one corrupt archive, and one ZIP without an XCCDF
// document.
func writeLibrary(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "srgs"), 0o755))

	writeZip(t, filepath.Join(dir, "U_Juniper_SRX_SG_NDM_STIG.zip"), map[string]string{
		"U_Juniper_SRX_SG_NDM_STIG_V2R3_Manual-xccdf.xml": srxBenchmarkXML,
		"U_Juniper_SRX_SG_NDM_STIG_Overview.pdf":          "%PDF-1.4 placeholder",
	})
	writeZip(t, filepath.Join(dir, "srgs", "U_Network_ALG_SRG.zip"), map[string]string{
		"U_Network_ALG_SRG_V3R1_Manual-xccdf.xml": algSRGXML,
	})
	writeZip(t, filepath.Join(dir, "U_NoDoc.zip"), map[string]string{
		"readme.txt": "nothing to see here",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "U_Corrupt.zip"), []byte("not a zip archive"), 0o644))

	return dir
}

func TestIndexerRescan(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	catalog, err := ix.Rescan()
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Len())

	stats := ix.Stats()
	assert.Equal(t, 4, stats.TotalZips)
	assert.Equal(t, 2, stats.ParsedOK)
	assert.Equal(t, 2, stats.ParseErrors)
	assert.Equal(t, 4, stats.TotalRules)
	require.NotNil(t, stats.LastIndexed)

	entry, ok := catalog.Entry("Juniper_SRX_SG_NDM_STIG")
	require.True(t, ok)
	assert.Equal(t, "U_Juniper_SRX_SG_NDM_STIG.zip", entry.ZipFilename)
	assert.Equal(t, "U_Juniper_SRX_SG_NDM_STIG_V2R3_Manual-xccdf.xml", entry.XCCDFPath)

	_, err = os.Stat(ix.CachePath())
	assert.NoError(t, err)
}

func TestIndexerRescanMissingLibrary(t *testing.T) {
	ix := NewIndexer(filepath.Join(t.TempDir(), "missing"), logger.NewTestLogger())

	_, err := ix.Rescan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan stig library")
}

func TestIndexerLoadUsesCache(t *testing.T) {
	dir := writeLibrary(t)

	_, err := NewIndexer(dir, logger.NewTestLogger()).Rescan()
	require.NoError(t, err)

	// Remove every archive: a cache hit is the only way Load can still
	// come back with entries.
	require.NoError(t, os.Remove(filepath.Join(dir, "U_Juniper_SRX_SG_NDM_STIG.zip")))
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "srgs")))

	ix := NewIndexer(dir, logger.NewTestLogger())
	catalog, err := ix.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, 2, ix.Stats().ParsedOK)
}

func TestIndexerLoadIgnoresBadCache(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	require.NoError(t, os.WriteFile(ix.CachePath(), []byte("{broken"), 0o644))

	catalog, err := ix.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
}

func TestIndexerLoadIgnoresCacheVersionMismatch(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	require.NoError(t, os.WriteFile(ix.CachePath(),
		[]byte(`{"version":"0.9","stats":{},"catalog":{"entries":[]}}`), 0o644))

	catalog, err := ix.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
}

func TestIndexerRules(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	_, err := ix.Rescan()
	require.NoError(t, err)

	rules, err := ix.Rules("Juniper_SRX_SG_NDM_STIG")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "V-66003", rules[0].VulnID)

	// Memoized: the archive is no longer needed once parsed.
	require.NoError(t, os.Remove(filepath.Join(dir, "U_Juniper_SRX_SG_NDM_STIG.zip")))

	rules, err = ix.Rules("Juniper_SRX_SG_NDM_STIG")
	require.NoError(t, err)
	assert.Len(t, rules, 3)
}

func TestIndexerRulesLocatesMovedArchive(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	_, err := ix.Rescan()
	require.NoError(t, err)

	// The SRG archive lives under srgs/, so the direct path misses and the
	// walk has to find it.
	rules, err := ix.Rules("Network_ALG_SRG")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestIndexerRulesUnknownBenchmark(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	_, err := ix.Rescan()
	require.NoError(t, err)

	_, err = ix.Rules("Unknown_STIG")
	assert.ErrorIs(t, err, ErrBenchmarkNotFound)
}

func TestIndexerRulesMissingArchive(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	_, err := ix.Rescan()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "U_Juniper_SRX_SG_NDM_STIG.zip")))

	_, err = ix.Rules("Juniper_SRX_SG_NDM_STIG")
	assert.ErrorIs(t, err, ErrBenchmarkNotFound)
}

func TestIndexerSummary(t *testing.T) {
	dir := writeLibrary(t)
	ix := NewIndexer(dir, logger.NewTestLogger())

	_, err := ix.Rescan()
	require.NoError(t, err)

	summary := ix.Summary()
	assert.Equal(t, dir, summary.LibraryPath)
	assert.Equal(t, 2, summary.TotalEntries)
	assert.Equal(t, 1, summary.STIGs)
	assert.Equal(t, 1, summary.SRGs)
	assert.Equal(t, 4, summary.TotalRules)
	assert.Equal(t, 1, summary.PlatformsCovered[string(models.PlatformJuniperSRX)])
	require.NotNil(t, summary.LastIndexed)
}

func TestIsXCCDFName(t *testing.T) {
	assert.True(t, isXCCDFName("U_Juniper_SRX_SG_NDM_STIG_V2R3_Manual-xccdf.xml"))
	assert.True(t, isXCCDFName("nested/dir/benchmark-XCCDF.XML"))
	assert.True(t, isXCCDFName("U_Network_Device_STIG_Readme.xml"))
	assert.False(t, isXCCDFName("U_Juniper_SRX_overview.html"))
	assert.False(t, isXCCDFName("manual.xml"))
}
