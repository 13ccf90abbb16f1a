package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingInput is returned when the dataset document does not exist.
	ErrMissingInput = errors.New("dataset not found")

	// ErrMalformedInput is returned when the document cannot be decoded or
	// lacks one of the five collections.
	ErrMalformedInput = errors.New("malformed dataset")
)

// Format is the encoding of a dataset document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document mirrors Dataset with pointers so absent collections can be told
// apart from empty ones.
type document struct {
	Categories *[]Category  `json:"categories" yaml:"categories"`
	Customers  *[]Customer  `json:"customers" yaml:"customers"`
	Products   *[]Product   `json:"products" yaml:"products"`
	Orders     *[]Order     `json:"orders" yaml:"orders"`
	OrderItems *[]OrderItem `json:"order_items" yaml:"order_items"`
}

// ReadFile reads and decodes the dataset at path.
func ReadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	return Decode(data, FormatFromPath(path))
}

// Decode parses a dataset document.
func Decode(data []byte, format Format) (*Dataset, error) {
	var doc document

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	missing := []string{}
	if doc.Categories == nil {
		missing = append(missing, "categories")
	}
	if doc.Customers == nil {
		missing = append(missing, "customers")
	}
	if doc.Products == nil {
		missing = append(missing, "products")
	}
	if doc.Orders == nil {
		missing = append(missing, "orders")
	}
	if doc.OrderItems == nil {
		missing = append(missing, "order_items")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing collections %s", ErrMalformedInput, strings.Join(missing, ", "))
	}

	return &Dataset{
		Categories:  *doc.Categories,
		Customers:   *doc.Customers,
		Products:    *doc.Products,
		Orders:      *doc.Orders,
		OrderItems:  *doc.OrderItems,
		Fingerprint: xxhash.Sum64(data),
	}, nil
}
