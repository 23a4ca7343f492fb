// Package verify compares generated metadata documents against per-unit
// expectations. All checks collect discrepancies independently; nothing in
// this package stops at the first failure.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/repoverify/repoverify/internal/expect"
	"github.com/repoverify/repoverify/internal/xmltree"
)

// Shape fixes the tag names of a document kind: the root element, the
// repeated per-unit element and the child element that keys a unit.
type Shape struct {
	RootTag string
	UnitTag string
	KeyTag  string
}

// Shapes of the two generated documents the suite verifies.
var (
	Comps      = Shape{RootTag: "comps", UnitTag: "group", KeyTag: "id"}
	UpdateInfo = Shape{RootTag: "updates", UnitTag: "update", KeyTag: "id"}
)

// Document verifies a whole metadata document: root tag, one unit element
// per expectation, exactly one key child per unit element, key uniqueness,
// then every per-unit expectation. Expectations whose key occurs more than
// once in the document are reported as a single duplicate-key discrepancy
// and their field checks are suppressed, so field noise cannot pile up
// behind a duplication.
func Document(root *xmltree.Node, shape Shape, expectations []expect.Expectation) []Discrepancy {
	var found []Discrepancy

	if root.Tag != shape.RootTag {
		found = append(found, Discrepancy{
			Kind:  Structural,
			Field: "root",
			Want:  shape.RootTag,
			Got:   root.Tag,
		})
	}

	units := root.FindAll(shape.UnitTag)
	if len(units) != len(expectations) {
		found = append(found, Discrepancy{
			Kind:   Structural,
			Field:  shape.UnitTag,
			Want:   fmt.Sprintf("%d elements", len(expectations)),
			Got:    fmt.Sprintf("%d elements", len(units)),
			Detail: "one element per imported unit",
		})
	}

	keyCounts := make(map[string]int)
	for i, el := range units {
		keys := el.FindAll(shape.KeyTag)
		if len(keys) != 1 {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   fmt.Sprintf("%s[%d]", shape.UnitTag, i),
				Field:  shape.KeyTag,
				Want:   "1 element",
				Got:    fmt.Sprintf("%d elements", len(keys)),
				Detail: "every unit element carries exactly one key",
			})
		}
		if len(keys) > 0 {
			keyCounts[keys[0].Text]++
		}
	}

	duplicates := make(map[string]bool)
	for _, key := range sortedKeys(keyCounts) {
		if keyCounts[key] > 1 {
			duplicates[key] = true
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   key,
				Field:  shape.KeyTag,
				Want:   "unique key",
				Got:    fmt.Sprintf("%d occurrences", keyCounts[key]),
				Detail: "duplicate unit key",
			})
		}
	}

	for _, exp := range expectations {
		if duplicates[exp.Key] {
			continue
		}
		found = append(found, Unit(root, shape, exp)...)
	}

	return found
}

// Unit verifies one unit's expectation against the document. The unit
// element is located by its key child; a missing element is itself a
// structural discrepancy.
func Unit(root *xmltree.Node, shape Shape, exp expect.Expectation) []Discrepancy {
	el := unitByKey(root, shape, exp.Key)
	if el == nil {
		return []Discrepancy{{
			Kind:   Structural,
			Unit:   exp.Key,
			Field:  shape.KeyTag,
			Want:   exp.Key,
			Detail: "no unit element with this key",
		}}
	}

	var found []Discrepancy
	found = append(found, checkVerbatim(el, exp)...)
	found = append(found, checkCardinality(el, exp)...)
	found = append(found, checkTranslated(el, exp)...)
	found = append(found, checkLists(el, exp)...)
	found = append(found, checkPkglist(el, exp)...)
	return found
}

func unitByKey(root *xmltree.Node, shape Shape, key string) *xmltree.Node {
	for _, el := range root.FindAll(shape.UnitTag) {
		if id := el.Find(shape.KeyTag); id != nil && id.Text == key {
			return el
		}
	}
	return nil
}

func checkVerbatim(el *xmltree.Node, exp expect.Expectation) []Discrepancy {
	var found []Discrepancy
	tags := make([]string, 0, len(exp.Verbatim))
	for tag := range exp.Verbatim {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		want := exp.Verbatim[tag]
		elems := el.FindAll(tag)
		if len(elems) != 1 {
			found = append(found, Discrepancy{
				Kind:  Structural,
				Unit:  exp.Key,
				Field: tag,
				Want:  "1 element",
				Got:   fmt.Sprintf("%d elements", len(elems)),
			})
			continue
		}
		if elems[0].Text != want {
			found = append(found, Discrepancy{
				Kind:  Value,
				Unit:  exp.Key,
				Field: tag,
				Want:  want,
				Got:   elems[0].Text,
			})
		}
	}
	return found
}

func checkCardinality(el *xmltree.Node, exp expect.Expectation) []Discrepancy {
	var found []Discrepancy
	for _, tag := range exp.Single {
		if n := len(el.FindAll(tag)); n != 1 {
			found = append(found, Discrepancy{
				Kind:  Structural,
				Unit:  exp.Key,
				Field: tag,
				Want:  "1 element",
				Got:   fmt.Sprintf("%d elements", n),
			})
		}
	}
	for _, tag := range exp.Absent {
		if n := len(el.FindAll(tag)); n != 0 {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   exp.Key,
				Field:  tag,
				Want:   "no elements",
				Got:    fmt.Sprintf("%d elements", n),
				Detail: "element must be absent",
			})
		}
	}
	return found
}

func checkTranslated(el *xmltree.Node, exp expect.Expectation) []Discrepancy {
	var found []Discrepancy

	for _, tag := range sortedTranslatedTags(exp.Translated) {
		text := exp.Translated[tag]
		elems := el.FindAll(tag)

		// One untranslated element plus one per locale.
		if want := 1 + len(text.Locales); len(elems) != want {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   exp.Key,
				Field:  tag,
				Want:   fmt.Sprintf("%d elements", want),
				Got:    fmt.Sprintf("%d elements", len(elems)),
				Detail: "one untranslated element plus one per locale",
			})
		}

		var base *xmltree.Node
		byLang := make(map[string]*xmltree.Node)
		for _, elem := range elems {
			lang := elem.Attr("xml:lang")
			if lang == "" {
				if base == nil {
					base = elem
				}
				continue
			}
			if _, dup := byLang[lang]; !dup {
				byLang[lang] = elem
			}
		}

		if base == nil {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   exp.Key,
				Field:  tag,
				Want:   text.Base,
				Detail: "untranslated element missing",
			})
		} else if base.Text != text.Base {
			found = append(found, Discrepancy{
				Kind:  Value,
				Unit:  exp.Key,
				Field: tag,
				Want:  text.Base,
				Got:   base.Text,
			})
		}

		for _, lang := range sortedKeysString(text.Locales) {
			field := fmt.Sprintf("%s[%s]", tag, lang)
			elem, ok := byLang[lang]
			if !ok {
				found = append(found, Discrepancy{
					Kind:   Structural,
					Unit:   exp.Key,
					Field:  field,
					Want:   text.Locales[lang],
					Detail: "translated element missing",
				})
				continue
			}
			if elem.Text != text.Locales[lang] {
				found = append(found, Discrepancy{
					Kind:  Value,
					Unit:  exp.Key,
					Field: field,
					Want:  text.Locales[lang],
					Got:   elem.Text,
				})
			}
		}
	}
	return found
}

func checkLists(el *xmltree.Node, exp expect.Expectation) []Discrepancy {
	var found []Discrepancy

	for _, list := range exp.Lists {
		parent := el.Find(list.Parent)
		if parent == nil {
			// A missing parent is reported once via Single/Absent checks;
			// reporting each category against it again is noise.
			continue
		}

		entries := parent.FindAllAttr(list.Tag, list.Attr, list.Value)
		got := make([]string, 0, len(entries))
		for _, entry := range entries {
			got = append(got, entry.Text)
		}

		want := append([]string(nil), list.Texts...)
		sort.Strings(want)
		sort.Strings(got)
		if !equalStrings(want, got) {
			found = append(found, Discrepancy{
				Kind:   Value,
				Unit:   exp.Key,
				Field:  list.Value,
				Want:   strings.Join(want, ", "),
				Got:    strings.Join(got, ", "),
				Detail: fmt.Sprintf("%s entries with %s=%q", list.Tag, list.Attr, list.Value),
			})
		}

		for _, entryText := range sortedEntryKeys(list.EntryAttrs) {
			entry := entryByText(entries, entryText)
			if entry == nil {
				// Covered by the set comparison above.
				continue
			}
			attrs := list.EntryAttrs[entryText]
			for _, attr := range sortedKeysString(attrs) {
				if got := entry.Attr(attr); got != attrs[attr] {
					found = append(found, Discrepancy{
						Kind:   Value,
						Unit:   exp.Key,
						Field:  fmt.Sprintf("%s[%s]@%s", list.Value, entryText, attr),
						Want:   attrs[attr],
						Got:    got,
						Detail: "entry attribute mismatch",
					})
				}
			}
		}
	}
	return found
}

func checkPkglist(el *xmltree.Node, exp expect.Expectation) []Discrepancy {
	if exp.Pkglist == nil {
		return nil
	}

	var found []Discrepancy
	pkglists := el.FindAll("pkglist")
	if len(pkglists) != 1 {
		found = append(found, Discrepancy{
			Kind:  Structural,
			Unit:  exp.Key,
			Field: "pkglist",
			Want:  "1 element",
			Got:   fmt.Sprintf("%d elements", len(pkglists)),
		})
		if len(pkglists) == 0 {
			return found
		}
	}
	pkglist := pkglists[0]

	collections := pkglist.FindAll("collection")
	if len(collections) != len(exp.Pkglist.Collections) {
		found = append(found, Discrepancy{
			Kind:  Structural,
			Unit:  exp.Key,
			Field: "pkglist/collection",
			Want:  fmt.Sprintf("%d elements", len(exp.Pkglist.Collections)),
			Got:   fmt.Sprintf("%d elements", len(collections)),
		})
	}

	for i, want := range exp.Pkglist.Collections {
		collection := collectionFor(collections, want.Name, i)
		if collection == nil {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   exp.Key,
				Field:  "pkglist/" + want.Name,
				Want:   want.Name,
				Detail: "collection missing",
			})
			continue
		}
		found = append(found, checkCollection(collection, exp.Key, want)...)
	}
	return found
}

func checkCollection(collection *xmltree.Node, unitKey string, want expect.CollectionExpectation) []Discrepancy {
	var found []Discrepancy

	packages := collection.FindAll("package")
	if len(packages) != len(want.Packages) {
		found = append(found, Discrepancy{
			Kind:   Structural,
			Unit:   unitKey,
			Field:  "pkglist/" + want.Name,
			Want:   fmt.Sprintf("%d package elements", len(want.Packages)),
			Got:    fmt.Sprintf("%d package elements", len(packages)),
			Detail: "one package element per pkglist entry",
		})
	}

	for _, wantPkg := range want.Packages {
		name := wantPkg.Attrs["name"]
		field := "pkglist/" + name
		pkg := packageByName(packages, name)
		if pkg == nil {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   unitKey,
				Field:  field,
				Want:   name,
				Detail: "package element missing",
			})
			continue
		}

		for _, attr := range sortedKeysString(wantPkg.Attrs) {
			want := wantPkg.Attrs[attr]
			if want == "" {
				continue // attribute not asserted
			}
			if got := pkg.Attr(attr); got != want {
				found = append(found, Discrepancy{
					Kind:  Value,
					Unit:  unitKey,
					Field: field + "@" + attr,
					Want:  want,
					Got:   got,
				})
			}
		}

		if filename := pkg.Find("filename"); filename == nil {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   unitKey,
				Field:  field + "/filename",
				Want:   wantPkg.Filename,
				Detail: "filename element missing",
			})
		} else if filename.Text != wantPkg.Filename {
			found = append(found, Discrepancy{
				Kind:  Value,
				Unit:  unitKey,
				Field: field + "/filename",
				Want:  wantPkg.Filename,
				Got:   filename.Text,
			})
		}

		if wantPkg.SumValue == "" {
			continue
		}
		if sum := pkg.Find("sum"); sum == nil {
			found = append(found, Discrepancy{
				Kind:   Structural,
				Unit:   unitKey,
				Field:  field + "/sum",
				Want:   wantPkg.SumValue,
				Detail: "sum element missing",
			})
		} else {
			if got := sum.Attr("type"); got != wantPkg.SumType {
				found = append(found, Discrepancy{
					Kind:  Value,
					Unit:  unitKey,
					Field: field + "/sum@type",
					Want:  wantPkg.SumType,
					Got:   got,
				})
			}
			if sum.Text != wantPkg.SumValue {
				found = append(found, Discrepancy{
					Kind:  Value,
					Unit:  unitKey,
					Field: field + "/sum",
					Want:  wantPkg.SumValue,
					Got:   sum.Text,
				})
			}
		}
	}
	return found
}

func collectionFor(collections []*xmltree.Node, name string, index int) *xmltree.Node {
	for _, collection := range collections {
		if n := collection.Find("name"); n != nil && n.Text == name {
			return collection
		}
	}
	if name == "" && index < len(collections) {
		return collections[index]
	}
	return nil
}

func packageByName(packages []*xmltree.Node, name string) *xmltree.Node {
	for _, pkg := range packages {
		if pkg.Attr("name") == name {
			return pkg
		}
	}
	return nil
}

func entryByText(entries []*xmltree.Node, text string) *xmltree.Node {
	for _, entry := range entries {
		if entry.Text == text {
			return entry
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysString(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedEntryKeys(m map[string]map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedTranslatedTags(m map[string]expect.TranslatedText) []string {
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
