// Package catalogue reads and writes the YAML catalogue format used to load
// standards and requirements.
//
// A catalogue lists standards before requirements. Entry order is kept
// exactly, since standard order decides which standard a requirement joins
// to when identifiers overlap.
//
//	standards:
//	  - id: ISO27001
//	    type: ISO
//	    ref_id: iso-27001
//	    ref_name: Information security management
//	requirements:
//	  - reference_id: ISO27001-A.10.1
//	    description: Encrypt data at rest
//	    category: Cryptography
package catalogue

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/reqmatch/core"
)

// ErrInvalidCatalogue is returned when a catalogue cannot be decoded.
var ErrInvalidCatalogue = errors.New("invalid catalogue")

// Catalogue is a set of standards and requirements in load order.
type Catalogue struct {
	Standards    []*core.Standard
	Requirements []*core.Requirement
}

type document struct {
	Standards    []standardEntry    `yaml:"standards"`
	Requirements []requirementEntry `yaml:"requirements"`
}

type standardEntry struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type,omitempty"`
	RefID   string `yaml:"ref_id"`
	RefName string `yaml:"ref_name,omitempty"`
}

type requirementEntry struct {
	ReferenceID string `yaml:"reference_id"`
	Description string `yaml:"description"`
	Category    string `yaml:"category,omitempty"`
	ChangeNote  string `yaml:"change_note,omitempty"`
}

// Decode reads a catalogue. Unknown fields are rejected.
func Decode(r io.Reader) (*Catalogue, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Catalogue{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalogue, err)
	}

	c := &Catalogue{
		Standards:    make([]*core.Standard, len(doc.Standards)),
		Requirements: make([]*core.Requirement, len(doc.Requirements)),
	}
	for i, s := range doc.Standards {
		c.Standards[i] = &core.Standard{ID: s.ID, Type: s.Type, RefID: s.RefID, RefName: s.RefName}
	}
	for i, r := range doc.Requirements {
		c.Requirements[i] = &core.Requirement{
			ReferenceID: r.ReferenceID,
			Description: r.Description,
			Category:    r.Category,
			ChangeNote:  r.ChangeNote,
		}
	}
	return c, nil
}

// Load reads the catalogue at path.
func Load(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Encode writes c in catalogue format.
func Encode(w io.Writer, c *Catalogue) error {
	doc := document{
		Standards:    make([]standardEntry, 0, len(c.Standards)),
		Requirements: make([]requirementEntry, 0, len(c.Requirements)),
	}
	for _, s := range c.Standards {
		doc.Standards = append(doc.Standards, standardEntry{ID: s.ID, Type: s.Type, RefID: s.RefID, RefName: s.RefName})
	}
	for _, r := range c.Requirements {
		doc.Requirements = append(doc.Requirements, requirementEntry{
			ReferenceID: r.ReferenceID,
			Description: r.Description,
			Category:    r.Category,
			ChangeNote:  r.ChangeNote,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
