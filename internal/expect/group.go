package expect

import (
	"strconv"

	"github.com/repoverify/repoverify/internal/unit"
)

// Package-group category names as they appear in the type attribute of
// packagereq elements.
const (
	CategoryMandatory   = "mandatory"
	CategoryDefault     = "default"
	CategoryOptional    = "optional"
	CategoryConditional = "conditional"
)

// ForGroup computes the expected shape of the comps group element generated
// for one package-group unit.
//
// Booleans serialize as lowercase "true"/"false" and default to "false" when
// the source field is absent. display_order has no documented default: when
// unset it must not appear. The packagelist element is always emitted, even
// when every category is empty.
func ForGroup(g unit.PackageGroup) Expectation {
	exp := Expectation{
		Key: g.ID,
		Verbatim: map[string]string{
			"id":          g.ID,
			"default":     boolText(g.Default),
			"uservisible": boolText(g.UserVisible),
		},
		Single:     []string{"packagelist"},
		Translated: map[string]TranslatedText{},
	}

	if g.DisplayOrder != nil {
		exp.Verbatim["display_order"] = strconv.Itoa(*g.DisplayOrder)
	} else {
		exp.Absent = append(exp.Absent, "display_order")
	}

	// Translatable fields fan out to one untranslated element plus one per
	// locale. A field absent from the unit is not asserted at all.
	if g.Name != "" {
		exp.Translated["name"] = TranslatedText{Base: g.Name, Locales: g.TranslatedName}
	}
	if g.Description != "" {
		exp.Translated["description"] = TranslatedText{Base: g.Description, Locales: g.TranslatedDescription}
	}

	exp.Lists = []ListExpectation{
		packagereqList(CategoryMandatory, g.MandatoryPackages, nil),
		packagereqList(CategoryDefault, g.DefaultPackages, nil),
		packagereqList(CategoryOptional, g.OptionalPackages, nil),
		conditionalList(g.ConditionalPackages),
	}

	return exp
}

func packagereqList(category string, names []string, entryAttrs map[string]map[string]string) ListExpectation {
	return ListExpectation{
		Parent:     "packagelist",
		Tag:        "packagereq",
		Attr:       "type",
		Value:      category,
		Texts:      names,
		EntryAttrs: entryAttrs,
	}
}

func conditionalList(pairs []unit.ConditionalPackage) ListExpectation {
	names := make([]string, 0, len(pairs))
	attrs := make(map[string]map[string]string, len(pairs))
	for _, pair := range pairs {
		names = append(names, pair.Name)
		attrs[pair.Name] = map[string]string{"requires": pair.Requires}
	}
	return packagereqList(CategoryConditional, names, attrs)
}

func boolText(b *bool) string {
	if b != nil && *b {
		return "true"
	}
	return "false"
}
