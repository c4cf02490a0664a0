// internal/tcpos/parser.go
package tcpos

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-version"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMinVersion is the oldest export format the parser accepts
const DefaultMinVersion = "8.0"

var (
	// ErrUnsupportedVersion is returned for exports older than the minimum version
	ErrUnsupportedVersion = errors.New("tcpos: unsupported software version")

	// ErrMissingSubtree is returned when an expected part of the export is absent
	ErrMissingSubtree = errors.New("tcpos: missing subtree")
)

// Parser reads POS export files and applies the version gate
type Parser struct {
	minVersion *version.Version
}

// NewParser creates a parser accepting exports at or above minVersion
func NewParser(minVersion string) (*Parser, error) {
	if minVersion == "" {
		minVersion = DefaultMinVersion
	}
	v, err := version.NewVersion(minVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum version %q: %w", minVersion, err)
	}
	return &Parser{minVersion: v}, nil
}

// ParseFile parses the export stored at path
func (p *Parser) ParseFile(path string) (*Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	tx, err := p.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tx, nil
}

// Parse decodes one export and checks its shape and version
func (p *Parser) Parse(r io.Reader) (*Transaction, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	var tx Transaction
	if err := decoder.Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}

	if tx.Data == nil {
		return nil, fmt.Errorf("%w: data", ErrMissingSubtree)
	}
	if tx.Data.SubItems == nil {
		return nil, fmt.Errorf("%w: data/subItems", ErrMissingSubtree)
	}
	if err := p.checkVersion(tx.Data.SoftwareVersion); err != nil {
		return nil, err
	}

	return &tx, nil
}

func (p *Parser) checkVersion(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: data@SoftwareVersion", ErrMissingSubtree)
	}
	v, err := version.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw)
	}
	if v.LessThan(p.minVersion) {
		return fmt.Errorf("%w: %s is older than %s", ErrUnsupportedVersion, v, p.minVersion)
	}
	return nil
}

// charsetReader accepts the single-byte encodings the POS may declare
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii":
		return input, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "iso-8859-15":
		return charmap.ISO8859_15.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

var defaultParser, _ = NewParser(DefaultMinVersion)

// Parse decodes an export with the default minimum version
func Parse(r io.Reader) (*Transaction, error) {
	return defaultParser.Parse(r)
}

// ParseFile parses a file with the default minimum version
func ParseFile(path string) (*Transaction, error) {
	return defaultParser.ParseFile(path)
}
