package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/snap-generator/internal/domain/tree"
)

// Repository defines how configuration documents are read and written.
type Repository interface {
	Load(ctx context.Context) (*tree.Node, error)
	Save(ctx context.Context, root *tree.Node) error
}

const (
	// DefaultFileMode is applied to written manifests.
	DefaultFileMode os.FileMode = 0o644

	// yamlIndent matches the two-space style of snapcraft.yaml files.
	yamlIndent = 2
)

var (
	// ErrNotFound is returned when the document does not exist.
	ErrNotFound = errors.New("document not found")

	// errMultipleDocuments is returned for YAML streams with more than one document.
	errMultipleDocuments = errors.New("expected a single YAML document")
)

// LoadError wraps any failure to read or parse a document.
type LoadError struct {
	// Path is the document that failed to load.
	Path string
	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// FileRepository reads and writes a single structured document on disk.
// Files ending in .json or .jsonc are parsed as JSON with comments, anything
// else as YAML. Output is always YAML.
type FileRepository struct {
	// path is the filesystem location of the document.
	path string
}

// NewFileRepository creates a repository for the document at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the cleaned document path.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and parses the document. An empty document yields a null node.
func (r *FileRepository) Load(_ context.Context) (*tree.Node, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Path: r.path, Err: ErrNotFound}
		}

		return nil, &LoadError{Path: r.path, Err: err}
	}

	var root *tree.Node

	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".json", ".jsonc":
		root, err = decodeJSON(jsonc.ToJSON(contents))
	default:
		root, err = decodeYAML(contents)
	}

	if err != nil {
		return nil, &LoadError{Path: r.path, Err: err}
	}

	return root, nil
}

// Save writes root as YAML. The document is written to a temporary file next
// to the target and renamed into place, so a failure never leaves a partial
// file at the target path.
func (r *FileRepository) Save(_ context.Context, root *tree.Node) error {
	data, err := Encode(root)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}

	if err = writeAtomic(r.path, data); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}

	return nil
}

// Encode renders root as block-style YAML with mapping keys in insertion order.
func Encode(root *tree.Node) ([]byte, error) {
	var buffer bytes.Buffer

	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndent)

	if err := encoder.Encode(root.ToYAML()); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func decodeYAML(contents []byte) (*tree.Node, error) {
	var (
		decoder = yaml.NewDecoder(bytes.NewReader(contents))
		doc     yaml.Node
	)

	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return tree.Null(), nil
		}

		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	var extra yaml.Node
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}

		return nil, errMultipleDocuments
	}

	return tree.FromYAML(&doc)
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}

	if err = tmp.Sync(); err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Chmod(tmpName, DefaultFileMode); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
