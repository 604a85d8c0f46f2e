package stig

import (
	"sort"
	"strings"
	"time"

	"github.com/netnynja/netnynja/pkg/models"
)

// platformKeywords maps substrings of a benchmark ID to the platforms the
// benchmark applies to. Order matters only for the order of the resulting
// platform list; matching itself is contains-based over the lowercased ID.
var platformKeywords = []struct {
	keyword   string
	platforms []models.Platform
}{
	{"rhel_9", []models.Platform{models.PlatformRedHat}},
	{"rhel_8", []models.Platform{models.PlatformRedHat}},
	{"rhel_7", []models.Platform{models.PlatformRedHat}},
	{"red_hat", []models.Platform{models.PlatformRedHat}},
	{"ubuntu", []models.Platform{models.PlatformLinux}},
	{"oracle_linux", []models.Platform{models.PlatformLinux}},
	{"suse", []models.Platform{models.PlatformLinux}},
	{"amazon_linux", []models.Platform{models.PlatformLinux}},
	{"almalinux", []models.Platform{models.PlatformLinux, models.PlatformRedHat}},
	{"anduril_nixos", []models.Platform{models.PlatformLinux}},
	{"macos", []models.Platform{models.PlatformMacOS}},
	{"apple_macos", []models.Platform{models.PlatformMacOS}},
	{"windows", []models.Platform{models.PlatformWindows}},
	{"win_", []models.Platform{models.PlatformWindows}},
	{"microsoft", []models.Platform{models.PlatformWindows}},
	{"cisco_ios", []models.Platform{models.PlatformCiscoIOS}},
	{"cisco_ios-xe", []models.Platform{models.PlatformCiscoIOS}},
	{"cisco_ios-xr", []models.Platform{models.PlatformCiscoIOS}},
	{"cisco_nx-os", []models.Platform{models.PlatformCiscoNXOS}},
	{"cisco_nxos", []models.Platform{models.PlatformCiscoNXOS}},
	{"cisco_asa", []models.Platform{models.PlatformCiscoIOS}},
	{"cisco_ise", []models.Platform{models.PlatformCiscoIOS}},
	{"cisco_aci", []models.Platform{models.PlatformCiscoNXOS}},
	{"arista", []models.Platform{models.PlatformAristaEOS}},
	{"arista_mls", []models.Platform{models.PlatformAristaEOS}},
	{"arista_eos", []models.Platform{models.PlatformAristaEOS}},
	{"hpe_aruba", []models.Platform{models.PlatformHPEArubaCX}},
	{"aruba_networking", []models.Platform{models.PlatformHPEArubaCX}},
	{"hp_flexfabric", []models.Platform{models.PlatformHPProcurve}},
	{"juniper", []models.Platform{models.PlatformJuniperJunOS}},
	{"juniper_router", []models.Platform{models.PlatformJuniperJunOS}},
	{"juniper_srx", []models.Platform{models.PlatformJuniperSRX}},
	{"juniper_ex", []models.Platform{models.PlatformJuniperJunOS}},
	{"paloalto", []models.Platform{models.PlatformPaloAlto}},
	{"palo_alto", []models.Platform{models.PlatformPaloAlto}},
	{"fortigate", []models.Platform{models.PlatformFortinet}},
	{"fortinet", []models.Platform{models.PlatformFortinet}},
	{"f5_big-ip", []models.Platform{models.PlatformF5BigIP}},
	{"f5_tmos", []models.Platform{models.PlatformF5BigIP}},
	{"big-ip", []models.Platform{models.PlatformF5BigIP}},
	{"vmware_esxi", []models.Platform{models.PlatformVMwareESXi}},
	{"vmware_vcenter", []models.Platform{models.PlatformVMwareVCenter}},
	{"vmware_vsphere", []models.Platform{models.PlatformVMwareESXi, models.PlatformVMwareVCenter}},
	{"mellanox", []models.Platform{models.PlatformMellanox}},
	{"dell_os10", []models.Platform{models.PlatformAristaEOS}},
	{"pfsense", []models.Platform{models.PlatformPfSense}},
}

// ClassifyPlatforms derives the applicable platforms from a benchmark ID.
// SRGs usually match nothing and come back empty.
func ClassifyPlatforms(benchmarkID string) []models.Platform {
	id := strings.ToLower(benchmarkID)

	var (
		platforms []models.Platform
		seen      = make(map[models.Platform]struct{})
	)

	for _, mapping := range platformKeywords {
		if !strings.Contains(id, mapping.keyword) {
			continue
		}

		for _, p := range mapping.platforms {
			if _, ok := seen[p]; ok {
				continue
			}

			seen[p] = struct{}{}

			platforms = append(platforms, p)
		}
	}

	return platforms
}

// Catalog is the in-memory view of an indexed STIG library: entries keyed
// by benchmark ID plus a platform index for applicability lookups.
type Catalog struct {
	LibraryPath string

	entries    map[string]models.STIGEntry
	byPlatform map[models.Platform][]string
}

// NewCatalog returns an empty catalog rooted at libraryPath.
func NewCatalog(libraryPath string) *Catalog {
	return &Catalog{
		LibraryPath: libraryPath,
		entries:     make(map[string]models.STIGEntry),
		byPlatform:  make(map[models.Platform][]string),
	}
}

// Add inserts or replaces an entry and refreshes the platform index. CCIs
// are kept sorted so two scans of the same library compare equal.
func (c *Catalog) Add(entry models.STIGEntry) {
	sort.Strings(entry.CCIs)

	c.entries[entry.BenchmarkID] = entry

	for _, platform := range entry.Platforms {
		if !containsString(c.byPlatform[platform], entry.BenchmarkID) {
			c.byPlatform[platform] = append(c.byPlatform[platform], entry.BenchmarkID)
		}
	}
}

// Entry looks up a benchmark by ID.
func (c *Catalog) Entry(benchmarkID string) (models.STIGEntry, bool) {
	entry, ok := c.entries[benchmarkID]

	return entry, ok
}

// Entries returns all entries ordered by benchmark ID.
func (c *Catalog) Entries() []models.STIGEntry {
	out := make([]models.STIGEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BenchmarkID < out[j].BenchmarkID })

	return out
}

// Len reports the number of indexed benchmarks.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// ByPlatform returns the benchmarks applicable to one platform.
func (c *Catalog) ByPlatform(platform models.Platform) []models.STIGEntry {
	ids := c.byPlatform[platform]

	out := make([]models.STIGEntry, 0, len(ids))

	for _, id := range ids {
		if entry, ok := c.entries[id]; ok {
			out = append(out, entry)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BenchmarkID < out[j].BenchmarkID })

	return out
}

// Search matches query case-insensitively against title, benchmark ID, and
// description.
func (c *Catalog) Search(query string) []models.STIGEntry {
	q := strings.ToLower(query)

	var out []models.STIGEntry

	for _, entry := range c.Entries() {
		if strings.Contains(strings.ToLower(entry.Title), q) ||
			strings.Contains(strings.ToLower(entry.BenchmarkID), q) ||
			strings.Contains(strings.ToLower(entry.Description), q) {
			out = append(out, entry)
		}
	}

	return out
}

// LatestForPlatform picks the most recent benchmark for a platform, ordered
// by release date, then release number, then version string. Entries
// without a release date sort oldest.
func (c *Catalog) LatestForPlatform(platform models.Platform) (models.STIGEntry, bool) {
	entries := c.ByPlatform(platform)
	if len(entries) == 0 {
		return models.STIGEntry{}, false
	}

	latest := entries[0]
	for _, entry := range entries[1:] {
		if moreRecent(entry, latest) {
			latest = entry
		}
	}

	return latest, true
}

func moreRecent(a, b models.STIGEntry) bool {
	ad, bd := releaseDateOrZero(a), releaseDateOrZero(b)

	if !ad.Equal(bd) {
		return ad.After(bd)
	}

	if a.Release != b.Release {
		return a.Release > b.Release
	}

	return a.Version > b.Version
}

func releaseDateOrZero(e models.STIGEntry) time.Time {
	if e.ReleaseDate == nil {
		return time.Time{}
	}

	return *e.ReleaseDate
}

// catalogDocument is the serialized catalog shape inside the index cache.
type catalogDocument struct {
	LibraryPath string             `json:"library_path,omitempty"`
	Entries     []models.STIGEntry `json:"entries"`
}

func (c *Catalog) document() catalogDocument {
	return catalogDocument{LibraryPath: c.LibraryPath, Entries: c.Entries()}
}

func catalogFromDocument(doc catalogDocument) *Catalog {
	catalog := NewCatalog(doc.LibraryPath)
	for _, entry := range doc.Entries {
		catalog.Add(entry)
	}

	return catalog
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
