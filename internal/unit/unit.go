package unit

import (
	"encoding/json"
	"fmt"
)

// Unit type identifiers understood by the import API.
const (
	TypePackageGroup = "package_group"
	TypeErratum      = "erratum"
)

// PackageGroup is a comps package-group content unit in the shape the import
// API accepts. Optional scalar fields use pointers so that "absent" and
// "zero" stay distinguishable; absent fields are omitted from the upload
// body entirely.
type PackageGroup struct {
	ID                    string               `json:"id"`
	Name                  string               `json:"name,omitempty"`
	TranslatedName        map[string]string    `json:"translated_name,omitempty"`
	Description           string               `json:"description,omitempty"`
	TranslatedDescription map[string]string    `json:"translated_description,omitempty"`
	Default               *bool                `json:"default,omitempty"`
	UserVisible           *bool                `json:"user_visible,omitempty"`
	DisplayOrder          *int                 `json:"display_order,omitempty"`
	MandatoryPackages     []string             `json:"mandatory_package_names,omitempty"`
	DefaultPackages       []string             `json:"default_package_names,omitempty"`
	OptionalPackages      []string             `json:"optional_package_names,omitempty"`
	ConditionalPackages   []ConditionalPackage `json:"conditional_package_names,omitempty"`
}

// ConditionalPackage pairs a package name with the package that pulls it in.
// The wire format is a two-element array, not an object.
type ConditionalPackage struct {
	Name     string
	Requires string
}

// MarshalJSON serializes the pair as ["name", "requires"].
func (c ConditionalPackage) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Name, c.Requires})
}

// UnmarshalJSON accepts the two-element array form.
func (c *ConditionalPackage) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("conditional package must be a [name, requires] pair: %w", err)
	}
	c.Name = pair[0]
	c.Requires = pair[1]
	return nil
}

// Erratum is an updateinfo content unit. Version is opaque text: it often
// looks numeric but is never parsed or compared as a number.
type Erratum struct {
	ID              string              `json:"id"`
	Title           string              `json:"title,omitempty"`
	Description     string              `json:"description,omitempty"`
	Issued          string              `json:"issued,omitempty"`
	Solution        string              `json:"solution,omitempty"`
	Status          string              `json:"status,omitempty"`
	Type            string              `json:"type,omitempty"`
	Version         string              `json:"version,omitempty"`
	RebootSuggested bool                `json:"reboot_suggested,omitempty"`
	Pkglist         []PackageCollection `json:"pkglist,omitempty"`
	References      []Reference         `json:"references,omitempty"`
}

// PackageCollection is one named collection inside an erratum pkglist.
type PackageCollection struct {
	Name     string         `json:"name"`
	Packages []PackageEntry `json:"packages"`
}

// PackageEntry describes one RPM affected by an erratum.
type PackageEntry struct {
	Name     string       `json:"name"`
	Epoch    string       `json:"epoch"`
	Version  string       `json:"version"`
	Release  string       `json:"release"`
	Arch     string       `json:"arch"`
	Filename string       `json:"filename"`
	Src      string       `json:"src,omitempty"`
	Sum      ChecksumPair `json:"sum"`
}

// ChecksumPair is a checksum with its algorithm, serialized as the
// two-element array ["sha256", "<hex>"].
type ChecksumPair struct {
	Type  string
	Value string
}

// MarshalJSON serializes the pair as ["type", "value"].
func (c ChecksumPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Type, c.Value})
}

// UnmarshalJSON accepts the two-element array form.
func (c *ChecksumPair) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("checksum must be a [type, value] pair: %w", err)
	}
	c.Type = pair[0]
	c.Value = pair[1]
	return nil
}

// Reference is one external reference attached to an erratum.
type Reference struct {
	Href  string `json:"href"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}
