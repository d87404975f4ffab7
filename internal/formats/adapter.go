package formats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mind-engage/mindengage-psy/internal/bank"
)

// BankFile is the on-disk exchange shape of an item bank. Domains are
// optional; they may also live in a separate file.
type BankFile struct {
	Items   []bank.Record `json:"items" yaml:"items" toml:"items"`
	Domains []bank.Domain `json:"domains,omitempty" yaml:"domains,omitempty" toml:"domains,omitempty"`
}

// Codec reads and writes bank files in one serialization.
type Codec interface {
	Decode(r io.Reader) (BankFile, error)
	Encode(w io.Writer, f BankFile) error
}

// Registry of codecs by file extension (".json", ".yaml", ...).
var registry = map[string]Codec{}

// Register a codec for one or more extensions. Called from init().
func Register(c Codec, exts ...string) {
	for _, e := range exts {
		registry[strings.ToLower(e)] = c
	}
}

// Lookup returns the codec registered for the extension of path.
func Lookup(path string) (Codec, bool) {
	c, ok := registry[strings.ToLower(filepath.Ext(path))]
	return c, ok
}

// ByContentType maps a MIME type such as "application/yaml" to its codec.
// An empty content type means JSON.
func ByContentType(ct string) (Codec, bool) {
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	switch ct {
	case "", "application/json", "text/json":
		return registry[".json"], true
	case "application/yaml", "application/x-yaml", "text/yaml":
		return registry[".yaml"], true
	case "application/toml", "text/toml":
		return registry[".toml"], true
	}
	return nil, false
}

// Supported reports whether a file can be decoded by extension.
func Supported(path string) bool {
	_, ok := Lookup(path)
	return ok
}

// ReadFile decodes a bank file, picking the codec by extension.
func ReadFile(path string) (BankFile, error) {
	c, ok := Lookup(path)
	if !ok {
		return BankFile{}, fmt.Errorf("unsupported bank file extension: %q", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return BankFile{}, err
	}
	defer f.Close()
	bf, err := c.Decode(f)
	if err != nil {
		return BankFile{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return bf, nil
}

// WriteFile encodes a bank file, picking the codec by extension.
func WriteFile(path string, bf BankFile) error {
	c, ok := Lookup(path)
	if !ok {
		return fmt.Errorf("unsupported bank file extension: %q", filepath.Ext(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Encode(f, bf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ItemList validates every record and returns the publishable items. The first
// malformed record aborts the conversion.
func (bf BankFile) ItemList() ([]bank.Item, error) {
	out := make([]bank.Item, 0, len(bf.Items))
	for i, rec := range bf.Items {
		it, err := rec.Item()
		if err != nil {
			return nil, fmt.Errorf("item #%d: %w", i+1, err)
		}
		out = append(out, it)
	}
	return out, nil
}

// FromItems builds a bank file from published items.
func FromItems(items []bank.Item, domains []bank.Domain) BankFile {
	bf := BankFile{Items: make([]bank.Record, len(items)), Domains: domains}
	for i, it := range items {
		bf.Items[i] = bank.RecordOf(it)
	}
	return bf
}
