package seeds

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// maxDOIPages is how many leading pages are scanned for a DOI; it is
// almost always on the first page.
const maxDOIPages = 3

// ExtractDOIs scans every PDF in dir and returns the DOIs found, one per
// file, sorted and deduplicated. Files without a detectable DOI are
// reported in skipped; unreadable files are reported as errors but do not
// abort the scan.
func ExtractDOIs(dir string) (dois []string, skipped []string, errs []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, []error{fmt.Errorf("reading PDF directory: %w", err)}
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		doi, err := ExtractDOI(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		if doi == "" {
			skipped = append(skipped, entry.Name())
			continue
		}
		if !seen[doi] {
			seen[doi] = true
			dois = append(dois, doi)
		}
	}

	sort.Strings(dois)
	return dois, skipped, errs
}

// ExtractDOI extracts a DOI from a PDF file, searching the first few pages.
// An empty result without an error means no DOI was found.
func ExtractDOI(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	maxPages := maxDOIPages
	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if doi := findDOI(text); doi != "" {
			return doi, nil
		}
	}

	return "", nil
}

// findDOI finds the first valid DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
