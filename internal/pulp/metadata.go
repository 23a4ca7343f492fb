package pulp

import (
	"context"
	"encoding/xml"
	"fmt"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/repoverify/repoverify/internal/signer"
	"github.com/repoverify/repoverify/internal/utils"
	"github.com/repoverify/repoverify/internal/xmltree"
)

// repomd mirrors the index file a yum distributor writes to repodata/.
type repomd struct {
	Data []repomdData `xml:"data"`
}

type repomdData struct {
	Type     string `xml:"type,attr"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
	Checksum struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"checksum"`
}

// FetchMetadata downloads the published metadata file of the given kind
// ("group", "updateinfo", ...) from the repository at relativeURL, verifies
// its checksum against repomd.xml, decompresses it and returns the parsed
// document tree.
func (c *Client) FetchMetadata(ctx context.Context, relativeURL, kind string) (*xmltree.Node, error) {
	index, err := c.fetchRepomd(ctx, relativeURL)
	if err != nil {
		return nil, err
	}

	var entry *repomdData
	for i := range index.Data {
		if index.Data[i].Type == kind {
			entry = &index.Data[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("repomd.xml for %s has no %q entry", relativeURL, kind)
	}
	if entry.Location.Href == "" {
		return nil, fmt.Errorf("repomd.xml %q entry has no location", kind)
	}

	logrus.Debugf("Fetching %s metadata from %s", kind, entry.Location.Href)
	raw, err := c.fetch(ctx, path.Join("pulp/repos", relativeURL, entry.Location.Href))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s metadata: %w", kind, err)
	}

	if entry.Checksum.Value != "" {
		if err := utils.VerifyChecksum(raw, entry.Checksum.Type, entry.Checksum.Value); err != nil {
			return nil, fmt.Errorf("%s metadata checksum mismatch: %w", kind, err)
		}
	}

	plain, err := utils.DecompressByName(entry.Location.Href, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s metadata: %w", kind, err)
	}

	doc, err := xmltree.Parse(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s metadata: %w", kind, err)
	}
	return doc, nil
}

// VerifyRepomdSignature fetches repomd.xml and its detached signature and
// checks the signature against the verifier's keyring.
func (c *Client) VerifyRepomdSignature(ctx context.Context, relativeURL string, verifier *signer.Verifier) error {
	data, err := c.fetch(ctx, path.Join("pulp/repos", relativeURL, "repodata/repomd.xml"))
	if err != nil {
		return fmt.Errorf("failed to fetch repomd.xml: %w", err)
	}
	sig, err := c.fetch(ctx, path.Join("pulp/repos", relativeURL, "repodata/repomd.xml.asc"))
	if err != nil {
		return fmt.Errorf("failed to fetch repomd.xml.asc: %w", err)
	}
	if err := verifier.VerifyDetached(data, sig); err != nil {
		return fmt.Errorf("repomd.xml signature for %s invalid: %w", relativeURL, err)
	}
	return nil
}

func (c *Client) fetchRepomd(ctx context.Context, relativeURL string) (*repomd, error) {
	data, err := c.fetch(ctx, path.Join("pulp/repos", relativeURL, "repodata/repomd.xml"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repomd.xml for %s: %w", relativeURL, err)
	}

	var index repomd
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse repomd.xml for %s: %w", relativeURL, err)
	}
	return &index, nil
}
