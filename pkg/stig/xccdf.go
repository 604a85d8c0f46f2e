// Package stig indexes DISA STIG libraries, parses device configurations,
// and evaluates benchmark rules against them.
package stig

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/netnynja/netnynja/pkg/models"
)

// DISA publishes release info as plain text, e.g.
// "Release: 3 Benchmark Date: 24 Jul 2024".
var (
	releaseNumberRe  = regexp.MustCompile(`Release:\s*(\d+)`)
	benchmarkDateRe  = regexp.MustCompile(`Benchmark Date:\s*([0-9]{1,2}\s+\w+\s+[0-9]{4})`)
	vulnDiscussionRe = regexp.MustCompile(`(?s)<VulnDiscussion>(.*?)</VulnDiscussion>`)
)

const (
	benchmarkDateLayout = "2 Jan 2006"
	statusDateLayout    = "2006-01-02"

	releaseInfoID = "release-info"
)

// Element names are matched by local name, so both the 1.1 and 1.2 XCCDF
// namespaces decode with the same structs.
type xccdfBenchmark struct {
	XMLName     xml.Name         `xml:"Benchmark"`
	ID          string           `xml:"id,attr"`
	Title       string           `xml:"title"`
	Description string           `xml:"description"`
	Status      xccdfStatus      `xml:"status"`
	PlainTexts  []xccdfPlainText `xml:"plain-text"`
	Version     string           `xml:"version"`
	Profiles    []xccdfProfile   `xml:"Profile"`
	Groups      []xccdfGroup     `xml:"Group"`
}

type xccdfStatus struct {
	Date  string `xml:"date,attr"`
	Value string `xml:",chardata"`
}

type xccdfPlainText struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type xccdfProfile struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title"`
}

type xccdfGroup struct {
	ID    string      `xml:"id,attr"`
	Title string      `xml:"title"`
	Rules []xccdfRule `xml:"Rule"`
}

type xccdfRule struct {
	ID          string       `xml:"id,attr"`
	Severity    string       `xml:"severity,attr"`
	Title       string       `xml:"title"`
	Description string       `xml:"description"`
	Idents      []xccdfIdent `xml:"ident"`
	FixText     string       `xml:"fixtext"`
	Check       xccdfCheck   `xml:"check"`
}

type xccdfIdent struct {
	System string `xml:"system,attr"`
	Value  string `xml:",chardata"`
}

type xccdfCheck struct {
	Content string `xml:"check-content"`
}

// parseXCCDF decodes one XCCDF document into a catalog entry and its rules.
// ZipFilename and XCCDFPath are left for the caller to fill.
func parseXCCDF(data []byte) (models.STIGEntry, []models.STIGRule, error) {
	var doc xccdfBenchmark
	if err := xml.Unmarshal(data, &doc); err != nil {
		return models.STIGEntry{}, nil, fmt.Errorf("decode xccdf: %w", err)
	}

	if doc.ID == "" {
		return models.STIGEntry{}, nil, fmt.Errorf("xccdf document has no benchmark id")
	}

	entry := models.STIGEntry{
		BenchmarkID: doc.ID,
		Title:       strings.TrimSpace(doc.Title),
		Version:     strings.TrimSpace(doc.Version),
		STIGType:    benchmarkType(doc.ID, doc.Title),
		Status:      strings.TrimSpace(doc.Status.Value),
		Description: strings.TrimSpace(doc.Description),
		Platforms:   ClassifyPlatforms(doc.ID),
	}

	if entry.Status == "" {
		entry.Status = "accepted"
	}

	if t, err := time.Parse(statusDateLayout, doc.Status.Date); err == nil {
		entry.StatusDate = &t
	}

	entry.Release, entry.ReleaseDate = parseReleaseInfo(doc.PlainTexts)

	for _, p := range doc.Profiles {
		entry.Profiles = append(entry.Profiles, p.ID)
	}

	rules := make([]models.STIGRule, 0, len(doc.Groups))
	ccis := make(map[string]struct{})

	for _, group := range doc.Groups {
		for _, r := range group.Rules {
			rule := models.STIGRule{
				VulnID:       group.ID,
				RuleID:       r.ID,
				GroupID:      strings.TrimSpace(group.Title),
				Title:        strings.TrimSpace(r.Title),
				Description:  vulnDiscussion(r.Description),
				Severity:     normalizeSeverity(r.Severity),
				CheckContent: strings.TrimSpace(r.Check.Content),
				FixContent:   strings.TrimSpace(r.FixText),
			}

			for _, ident := range r.Idents {
				cci := strings.TrimSpace(ident.Value)
				if !strings.HasPrefix(cci, "CCI-") {
					continue
				}

				rule.CCIs = append(rule.CCIs, cci)
				ccis[cci] = struct{}{}
			}

			switch rule.Severity {
			case models.SeverityHigh:
				entry.HighCount++
			case models.SeverityMedium:
				entry.MediumCount++
			case models.SeverityLow:
				entry.LowCount++
			}

			rules = append(rules, rule)
		}
	}

	entry.RulesCount = len(rules)
	entry.CCIs = sortedSet(ccis)

	return entry, rules, nil
}

func parseReleaseInfo(texts []xccdfPlainText) (int, *time.Time) {
	var (
		release int
		date    *time.Time
	)

	for _, pt := range texts {
		if pt.ID != releaseInfoID {
			continue
		}

		if m := releaseNumberRe.FindStringSubmatch(pt.Value); m != nil {
			release, _ = strconv.Atoi(m[1])
		}

		if m := benchmarkDateRe.FindStringSubmatch(pt.Value); m != nil {
			if t, err := time.Parse(benchmarkDateLayout, m[1]); err == nil {
				date = &t
			}
		}
	}

	return release, date
}

func benchmarkType(id, title string) models.STIGType {
	if strings.Contains(strings.ToLower(id), "srg") ||
		strings.Contains(strings.ToLower(title), "security requirements guide") {
		return models.STIGTypeSRG
	}

	return models.STIGTypeSTIG
}

// normalizeSeverity maps the XCCDF severity attribute to the closed set,
// defaulting unknown values to medium.
func normalizeSeverity(s string) models.STIGSeverity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return models.SeverityHigh
	case "low":
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}

// vulnDiscussion unwraps the pseudo-XML DISA embeds in rule descriptions.
func vulnDiscussion(desc string) string {
	if m := vulnDiscussionRe.FindStringSubmatch(desc); m != nil {
		return strings.TrimSpace(m[1])
	}

	return strings.TrimSpace(desc)
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}
