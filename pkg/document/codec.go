package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
)

// Format is a document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension. Anything other than
// .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", ferrors.New(ferrors.ErrCodeInvalidInput, "unsupported document format %q (use json or yaml)", s)
	}
}

// Marshal exports g and encodes it. JSON output is indented with two spaces.
func Marshal(g flow.Graph, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, g, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data in the given format and imports it.
func Unmarshal(data []byte, format Format) (flow.Graph, error) {
	return Read(bytes.NewReader(data), format)
}

// Decode imports data, detecting the format from its content: a document
// starting with '{' is JSON, anything else is YAML.
func Decode(data []byte) (flow.Graph, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return flow.Graph{}, ferrors.New(ferrors.ErrCodeInvalidDocument, "document is empty")
	}
	if trimmed[0] == '{' {
		return Unmarshal(data, FormatJSON)
	}
	return Unmarshal(data, FormatYAML)
}

// Write exports g and encodes it to w.
func Write(w io.Writer, g flow.Graph, format Format) error {
	d := Export(g)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// Read decodes a document from r and imports it. Malformed input and shape
// violations are both INVALID_DOCUMENT. Read does not close r.
func Read(r io.Reader, format Format) (flow.Graph, error) {
	var d Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			return flow.Graph{}, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, err, "decode yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return flow.Graph{}, ferrors.Wrap(ferrors.ErrCodeInvalidDocument, err, "decode json")
		}
	}
	return Import(d)
}

// WriteFile writes g to path, choosing the format from the extension.
func WriteFile(path string, g flow.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, g, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads and imports the document at path.
func ReadFile(path string) (flow.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return flow.Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}
