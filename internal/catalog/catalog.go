// Package catalog parses the model manifest into runnable model descriptors.
//
// The manifest is an XML file owned by the generation engines. The harness
// only extracts from it: model elements are matched at any nesting depth,
// numeric attributes fall back to documented defaults, and duplicate names
// keep their first occurrence so manifest authoring order wins.
package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
)

// ErrManifestNotFound reports an absent manifest file.
// Match with errors.Is after Load.
var ErrManifestNotFound = errors.New("manifest not found")

// ManifestError reports an unreadable or malformed manifest.
// Fatal for the invoking command; the harness never repairs a manifest.
type ManifestError struct {
	Path  string
	Model string // model being parsed when the error occurred, if known
	Err   error
}

func (e *ManifestError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("manifest %s: model %q: %v", e.Path, e.Model, e.Err)
	}
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// Model describes one runnable model configuration from the manifest.
//
// Dimensionality is derived, never declared directly:
// a model is 3D iff d == 3 or its height exceeds 1.
type Model struct {
	Name string

	// Grid extents, all positive.
	MX int
	MY int
	MZ int

	Is3D bool

	// Steps is the model's step budget. 0 means unlimited
	// (a declared steps="-1" maps to 0).
	Steps int
}

// Extents renders the grid size as "MXxMY" for 2D models and
// "MXxMYxMZ" for 3D models.
func (m Model) Extents() string {
	if m.Is3D {
		return fmt.Sprintf("%dx%dx%d", m.MX, m.MY, m.MZ)
	}
	return fmt.Sprintf("%dx%d", m.MX, m.MY)
}

// Attribute defaults observed by both engines.
const (
	defaultSize  = 16
	defaultSteps = 50000
)

// Load parses the manifest at path into an ordered, deduplicated model list.
//
// Returns a ManifestError wrapping ErrManifestNotFound when the file is
// absent, and a ManifestError for malformed markup or attributes.
func Load(path string) ([]Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ManifestError{Path: path, Err: ErrManifestNotFound}
		}
		return nil, &ManifestError{Path: path, Err: err}
	}
	defer f.Close()

	models, err := parse(f)
	if err != nil {
		var me *ManifestError
		if errors.As(err, &me) {
			me.Path = path
			return nil, me
		}
		return nil, &ManifestError{Path: path, Err: err}
	}
	return models, nil
}

// parse scans the XML token stream for model elements at any depth.
func parse(r io.Reader) ([]Model, error) {
	dec := xml.NewDecoder(r)

	var models []Model
	seen := make(map[string]struct{})

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ManifestError{Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "model" {
			continue
		}

		attrs := make(map[string]string, len(start.Attr))
		for _, a := range start.Attr {
			attrs[a.Name.Local] = a.Value
		}

		name := attrs["name"]
		if name == "" {
			// Unnamed entries are not runnable.
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		m, err := modelFromAttrs(name, attrs)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	return models, nil
}

// modelFromAttrs derives one descriptor from a model element's attributes.
func modelFromAttrs(name string, attrs map[string]string) (Model, error) {
	size, err := positiveAttr(name, attrs, "size", defaultSize)
	if err != nil {
		return Model{}, err
	}
	mx, err := positiveAttr(name, attrs, "length", size)
	if err != nil {
		return Model{}, err
	}
	my, err := positiveAttr(name, attrs, "width", size)
	if err != nil {
		return Model{}, err
	}

	d, err := intAttr(name, attrs, "d", 2)
	if err != nil {
		return Model{}, err
	}
	if d != 2 && d != 3 {
		return Model{}, &ManifestError{Model: name, Err: fmt.Errorf("attribute d must be 2 or 3, got %d", d)}
	}

	defaultHeight := 1
	if d == 3 {
		defaultHeight = size
	}
	mz, err := positiveAttr(name, attrs, "height", defaultHeight)
	if err != nil {
		return Model{}, err
	}

	steps, err := intAttr(name, attrs, "steps", defaultSteps)
	if err != nil {
		return Model{}, err
	}
	if steps < 0 {
		// Negative step budgets mean "run until done".
		steps = 0
	}

	return Model{
		Name:  name,
		MX:    mx,
		MY:    my,
		MZ:    mz,
		Is3D:  d == 3 || mz > 1,
		Steps: steps,
	}, nil
}

func intAttr(model string, attrs map[string]string, key string, fallback int) (int, error) {
	raw, ok := attrs[key]
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ManifestError{Model: model, Err: fmt.Errorf("attribute %s: invalid integer %q", key, raw)}
	}
	return v, nil
}

func positiveAttr(model string, attrs map[string]string, key string, fallback int) (int, error) {
	v, err := intAttr(model, attrs, key, fallback)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &ManifestError{Model: model, Err: fmt.Errorf("attribute %s must be positive, got %d", key, v)}
	}
	return v, nil
}
