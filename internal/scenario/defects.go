package scenario

import (
	"fmt"

	version "github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"

	"github.com/repoverify/repoverify/internal/expect"
)

// Defect is a known server bug that makes a specific field check untestable
// on servers that do not yet carry the fix.
type Defect struct {
	ID      int
	Field   string
	FixedIn string
}

// knownDefects lists server issues that corrupt generated metadata fields.
var knownDefects = []Defect{
	{ID: 1782, Field: "reboot_suggested", FixedIn: "2.8.0"},
	{ID: 1787, Field: "display_order", FixedIn: "2.9.0"},
}

// DefectPolicy decides which field checks to skip based on the server
// version. An empty version assumes every defect is fixed.
type DefectPolicy struct {
	serverVersion *version.Version
}

// NewDefectPolicy parses the configured server version. Empty is valid and
// means nothing gets skipped.
func NewDefectPolicy(serverVersion string) (*DefectPolicy, error) {
	if serverVersion == "" {
		return &DefectPolicy{}, nil
	}
	v, err := version.NewVersion(serverVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid server version %q: %w", serverVersion, err)
	}
	return &DefectPolicy{serverVersion: v}, nil
}

// Untestable reports whether the server is affected by the defect.
func (p *DefectPolicy) Untestable(d Defect) bool {
	if p.serverVersion == nil {
		return false
	}
	fixed, err := version.NewVersion(d.FixedIn)
	if err != nil {
		return false
	}
	return p.serverVersion.LessThan(fixed)
}

// Apply strips field assertions affected by unfixed defects from the given
// expectations in place and returns the ids of the defects that caused a
// skip.
func (p *DefectPolicy) Apply(expectations []expect.Expectation) []int {
	skipped := map[int]bool{}
	for _, d := range knownDefects {
		if !p.Untestable(d) {
			continue
		}
		for i := range expectations {
			if stripField(&expectations[i], d.Field) {
				if !skipped[d.ID] {
					logrus.Warnf("Skipping %s checks: server affected by issue #%d (fixed in %s)", d.Field, d.ID, d.FixedIn)
				}
				skipped[d.ID] = true
			}
		}
	}

	ids := make([]int, 0, len(skipped))
	for _, d := range knownDefects {
		if skipped[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// stripField removes every assertion on tag from the expectation, reporting
// whether anything was removed.
func stripField(exp *expect.Expectation, tag string) bool {
	removed := false
	if _, ok := exp.Verbatim[tag]; ok {
		delete(exp.Verbatim, tag)
		removed = true
	}
	if n := removeString(&exp.Single, tag); n {
		removed = true
	}
	if n := removeString(&exp.Absent, tag); n {
		removed = true
	}
	return removed
}

func removeString(list *[]string, s string) bool {
	out := (*list)[:0]
	removed := false
	for _, v := range *list {
		if v == s {
			removed = true
			continue
		}
		out = append(out, v)
	}
	*list = out
	return removed
}
