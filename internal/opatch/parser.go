package opatch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/orafleet/patchscan/pkg/models"
)

var (
	patchLineRe      = regexp.MustCompile(`(\d+);(.*)`)
	oracleVersionRe  = regexp.MustCompile(`Version (\d+(?:\.\d+){3,})`)
	opatchVersionRe  = regexp.MustCompile(`Version: ([\d.]+)`)
	releaseWordRe    = regexp.MustCompile(`[Rr]elease\s+([\d.]+)`)
	versionWordRe    = regexp.MustCompile(`[Vv]ersion\s+([\d.]+)`)
	genericVersionRe = regexp.MustCompile(`\d+(?:\.\d+){3,}`)
)

// Parse scrapes captured OPatch output into a PatchRecord. Every field
// is independently optional: a pattern that does not match leaves its
// field empty and never invalidates the record.
func Parse(raw models.RawInventory, hostname string) models.PatchRecord {
	rec := models.PatchRecord{
		Hostname:   hostname,
		SID:        raw.SID,
		OracleHome: raw.OracleHome,
	}

	if m := oracleVersionRe.FindStringSubmatch(raw.SQLPlusOut); m != nil {
		rec.OracleVersion = m[1]
	}
	if m := opatchVersionRe.FindStringSubmatch(raw.VersionOut); m != nil {
		rec.OPatchVersion = m[1]
	}

	for _, line := range strings.Split(raw.LspatchesOut, "\n") {
		m := patchLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		release := extractRelease(desc)
		if release == "" {
			continue
		}

		lower := strings.ToLower(desc)
		switch {
		case strings.Contains(lower, "database") || strings.Contains(lower, "db"):
			rec.DatabaseRelease = pickLatest(rec.DatabaseRelease, release)
		case strings.Contains(lower, "ojvm") || strings.Contains(lower, "java"):
			rec.OJVMRelease = pickLatest(rec.OJVMRelease, release)
		case strings.Contains(lower, "ocw") || strings.Contains(lower, "client"):
			rec.OCWRelease = pickLatest(rec.OCWRelease, release)
		}
	}

	return rec
}

// extractRelease pulls a version string out of a patch description,
// preferring an explicit "Release x.y" marker, then "Version x.y",
// then any dotted quad anywhere in the text.
func extractRelease(desc string) string {
	if m := releaseWordRe.FindStringSubmatch(desc); m != nil {
		return m[1]
	}
	if m := versionWordRe.FindStringSubmatch(desc); m != nil {
		return m[1]
	}
	return genericVersionRe.FindString(desc)
}

// pickLatest keeps the numerically newest of two release strings. On a
// tie the candidate wins, so of equal releases the last one listed is
// reported.
func pickLatest(current, candidate string) string {
	if candidate == "" {
		return current
	}
	if current == "" || !versionNewer(current, candidate) {
		return candidate
	}
	return current
}

// versionNewer reports whether a is strictly newer than b, comparing
// dotted components numerically with missing components treated as 0.
func versionNewer(a, b string) bool {
	ap := versionParts(a)
	bp := versionParts(b)
	for len(ap) < len(bp) {
		ap = append(ap, 0)
	}
	for len(bp) < len(ap) {
		bp = append(bp, 0)
	}
	for i := range ap {
		if ap[i] != bp[i] {
			return ap[i] > bp[i]
		}
	}
	return false
}

func versionParts(v string) []int {
	var parts []int
	for _, p := range strings.Split(v, ".") {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		parts = append(parts, n)
	}
	return parts
}
