package expect

import "github.com/repoverify/repoverify/internal/unit"

// ForErratum computes the expected shape of the updateinfo update element
// generated for one erratum unit.
//
// Scalar fields round-trip verbatim; version in particular is opaque text
// and is never coerced to a number. A reboot_suggested element may only
// appear when the unit asked for one, and a pkglist structure may only
// appear when the unit carries one.
func ForErratum(e unit.Erratum) Expectation {
	exp := Expectation{
		Key:      e.ID,
		Verbatim: map[string]string{"id": e.ID},
	}

	for tag, value := range map[string]string{
		"title":       e.Title,
		"description": e.Description,
		"issued":      e.Issued,
		"solution":    e.Solution,
		"status":      e.Status,
		"type":        e.Type,
		"version":     e.Version,
	} {
		if value != "" {
			exp.Verbatim[tag] = value
		}
	}

	if e.RebootSuggested {
		exp.Single = append(exp.Single, "reboot_suggested")
	} else {
		exp.Absent = append(exp.Absent, "reboot_suggested")
	}

	if len(e.Pkglist) == 0 {
		exp.Absent = append(exp.Absent, "pkglist")
		return exp
	}

	pkglist := &PkglistExpectation{}
	for _, collection := range e.Pkglist {
		ce := CollectionExpectation{Name: collection.Name}
		for _, pkg := range collection.Packages {
			ce.Packages = append(ce.Packages, PackageExpectation{
				Attrs: map[string]string{
					"name":    pkg.Name,
					"epoch":   pkg.Epoch,
					"version": pkg.Version,
					"release": pkg.Release,
					"arch":    pkg.Arch,
					"src":     pkg.Src,
				},
				Filename: pkg.Filename,
				SumType:  pkg.Sum.Type,
				SumValue: pkg.Sum.Value,
			})
		}
		pkglist.Collections = append(pkglist.Collections, ce)
	}
	exp.Pkglist = pkglist

	return exp
}
