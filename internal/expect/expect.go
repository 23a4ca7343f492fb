// Package expect translates content units into descriptions of the XML the
// server must generate for them. The descriptions are pure data; comparing
// them against a fetched document is the verifier's job.
package expect

// Expectation describes what a generated document must contain for one unit.
type Expectation struct {
	// Key is the text of the unit's identifying child element.
	Key string

	// Verbatim maps element tags to exact text; each tag must occur exactly
	// once.
	Verbatim map[string]string

	// Single lists tags that must occur exactly once, with no assertion on
	// their text.
	Single []string

	// Absent lists tags that must not occur at all.
	Absent []string

	// Translated maps element tags to their base text plus per-locale
	// translations. Such a tag occurs 1+len(Locales) times: once without a
	// locale attribute and once per locale.
	Translated map[string]TranslatedText

	// Lists describes repeated attribute-tagged entries under a shared
	// parent element, compared with set semantics.
	Lists []ListExpectation

	// Pkglist, when non-nil, describes the nested package-list structure of
	// an erratum.
	Pkglist *PkglistExpectation
}

// TranslatedText is a translatable field: the untranslated base string and
// the locale-tagged variants. Zero locales is valid.
type TranslatedText struct {
	Base    string
	Locales map[string]string
}

// ListExpectation describes repeated elements (Tag) under a single Parent,
// selected by one attribute equality (Attr=Value). Texts are compared as
// sets, independent of order. EntryAttrs maps an entry's text to further
// attributes that entry must carry.
type ListExpectation struct {
	Parent     string
	Tag        string
	Attr       string
	Value      string
	Texts      []string
	EntryAttrs map[string]map[string]string
}

// PkglistExpectation describes an erratum's pkglist element.
type PkglistExpectation struct {
	Collections []CollectionExpectation
}

// CollectionExpectation is one named collection; packages are matched by
// their name attribute.
type CollectionExpectation struct {
	Name     string
	Packages []PackageExpectation
}

// PackageExpectation is one package element inside a collection.
type PackageExpectation struct {
	Attrs    map[string]string
	Filename string
	SumType  string
	SumValue string
}
