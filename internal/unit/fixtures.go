package unit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sassoftware/go-rpmutils"
)

// Fixture units mirror the synthetic content the suite uploads. Every call
// produces a fresh random id; everything else is deterministic so that the
// computed expectations stay stable within a scenario.

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// RealisticGroup returns a package group with most supported fields filled
// in, including a few translated strings and all four package categories.
func RealisticGroup() PackageGroup {
	return PackageGroup{
		ID:   uuid.NewString(),
		Name: "Additional Development",
		TranslatedName: map[string]string{
			"es":    "Desarrollo adicional",
			"zh_CN": "附加开发",
		},
		Description: "Additional development headers and libraries for building open-source applications",
		TranslatedDescription: map[string]string{
			"es":    "Encabezados adicionales y bibliotecas para compilar aplicaciones de código abierto.",
			"zh_CN": "用于构建开源应用程序的附加开发标头及程序可。",
		},
		Default:           boolPtr(true),
		UserVisible:       boolPtr(true),
		DisplayOrder:      intPtr(55),
		MandatoryPackages: []string{"PyQt4-devel", "SDL-devel"},
		DefaultPackages:   []string{"perl-devel", "polkit-devel"},
		OptionalPackages:  []string{"binutils-devel", "python-devel"},
		ConditionalPackages: []ConditionalPackage{
			{Name: "perl-Test-Pod", Requires: "perl-devel"},
			{Name: "python-setuptools", Requires: "python-devel"},
		},
	}
}

// MinimalGroup returns a group that omits every non-mandatory field, which
// in practice means it carries only an id.
func MinimalGroup() PackageGroup {
	return PackageGroup{ID: uuid.NewString()}
}

// TypicalErratum returns an erratum with a package list, a reference and a
// description designed to catch re-wrapping or escaping anywhere in the
// round trip.
func TypicalErratum() Erratum {
	nevra := rpmutils.NEVRA{
		Name:    "libpfm",
		Epoch:   "0",
		Version: "4.4.0",
		Release: "9.el7",
		Arch:    "i686",
	}
	return Erratum{
		ID: uuid.NewString(),
		Description: "This sample description contains some non-ASCII characters " +
			", such as: 汉堡™, and also contains a long line which some " +
			"systems may be tempted to wrap.  It will be tested to see " +
			"if the string survives a round-trip through the API and " +
			"back out of the yum distributor as XML without any " +
			"modification.",
		Issued: "2015-03-05 05:42:53 UTC",
		Pkglist: []PackageCollection{{
			Name: "pkglist-name",
			Packages: []PackageEntry{PackageFromNEVRA(nevra, ChecksumPair{
				Type:  "sha256",
				Value: "ca42a0d97fd99a195b30f9256823a46c94f632c126ab4fbbdd7e127641f30ee4",
			})},
		}},
		References: []Reference{{
			Href:  "https://example.com/errata/RV-2017-1234.html",
			ID:    "RV-2017:1234",
			Title: "RV-2017:1234",
			Type:  "self",
		}},
		Solution: "sample solution",
		Status:   "final",
		Title:    "sample title",
		Type:     "enhancement",
		Version:  "6", // intentionally a string, never an int
	}
}

// ErratumWithoutPkglist returns an erratum that carries no package list.
func ErratumWithoutPkglist() Erratum {
	return Erratum{
		ID:          uuid.NewString(),
		Description: "this unit has no packages",
		Issued:      "2015-04-05 05:42:53 UTC",
		Solution:    "solution for no pkglist",
		Status:      "final",
		Title:       "no pkglist",
		Type:        "enhancement",
		Version:     "9",
	}
}

// PackageFromNEVRA derives a pkglist entry from RPM NEVRA fields. The binary
// and source filenames follow the usual name-version-release.arch layout.
func PackageFromNEVRA(nevra rpmutils.NEVRA, sum ChecksumPair) PackageEntry {
	return PackageEntry{
		Name:     nevra.Name,
		Epoch:    nevra.Epoch,
		Version:  nevra.Version,
		Release:  nevra.Release,
		Arch:     nevra.Arch,
		Filename: fmt.Sprintf("%s-%s-%s.%s.rpm", nevra.Name, nevra.Version, nevra.Release, nevra.Arch),
		Src:      fmt.Sprintf("%s-%s-%s.src.rpm", nevra.Name, nevra.Version, nevra.Release),
		Sum:      sum,
	}
}
