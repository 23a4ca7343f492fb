package expect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoverify/repoverify/internal/unit"
)

func TestForErratumTypical(t *testing.T) {
	erratum := unit.TypicalErratum()
	exp := ForErratum(erratum)

	assert.Equal(t, erratum.ID, exp.Key)
	for tag, want := range map[string]string{
		"id":          erratum.ID,
		"title":       "sample title",
		"issued":      "2015-03-05 05:42:53 UTC",
		"solution":    "sample solution",
		"status":      "final",
		"type":        "enhancement",
		"version":     "6",
		"description": erratum.Description,
	} {
		assert.Equal(t, want, exp.Verbatim[tag], "tag %s", tag)
	}

	// No reboot was requested, so none may appear.
	assert.Contains(t, exp.Absent, "reboot_suggested")
	assert.NotContains(t, exp.Single, "reboot_suggested")
}

func TestForErratumDescriptionIsOpaque(t *testing.T) {
	erratum := unit.TypicalErratum()
	exp := ForErratum(erratum)

	// Byte-for-byte: non-ASCII content and the long unwrapped line are the
	// same string the unit carried, untouched.
	assert.Equal(t, erratum.Description, exp.Verbatim["description"])
	assert.Contains(t, exp.Verbatim["description"], "汉堡™")
}

func TestForErratumVersionStaysText(t *testing.T) {
	erratum := unit.ErratumWithoutPkglist()
	erratum.Version = "007"
	exp := ForErratum(erratum)

	// Numeric-looking versions are never normalized.
	assert.Equal(t, "007", exp.Verbatim["version"])
}

func TestForErratumPkglist(t *testing.T) {
	erratum := unit.TypicalErratum()
	exp := ForErratum(erratum)

	require.NotNil(t, exp.Pkglist)
	assert.NotContains(t, exp.Absent, "pkglist")
	require.Len(t, exp.Pkglist.Collections, 1)

	collection := exp.Pkglist.Collections[0]
	assert.Equal(t, "pkglist-name", collection.Name)
	require.Len(t, collection.Packages, 1)

	pkg := collection.Packages[0]
	assert.Equal(t, "libpfm", pkg.Attrs["name"])
	assert.Equal(t, "0", pkg.Attrs["epoch"])
	assert.Equal(t, "4.4.0", pkg.Attrs["version"])
	assert.Equal(t, "9.el7", pkg.Attrs["release"])
	assert.Equal(t, "i686", pkg.Attrs["arch"])
	assert.Equal(t, "libpfm-4.4.0-9.el7.i686.rpm", pkg.Filename)
	assert.Equal(t, "sha256", pkg.SumType)
}

func TestForErratumNoPkglist(t *testing.T) {
	exp := ForErratum(unit.ErratumWithoutPkglist())

	assert.Nil(t, exp.Pkglist)
	assert.Contains(t, exp.Absent, "pkglist")
}

func TestForErratumRebootSuggested(t *testing.T) {
	erratum := unit.ErratumWithoutPkglist()
	erratum.RebootSuggested = true
	exp := ForErratum(erratum)

	assert.Contains(t, exp.Single, "reboot_suggested")
	assert.NotContains(t, exp.Absent, "reboot_suggested")
}

func TestForErratumOmittedFieldsNotAsserted(t *testing.T) {
	exp := ForErratum(unit.Erratum{ID: "e1"})

	assert.Equal(t, map[string]string{"id": "e1"}, exp.Verbatim)
}
