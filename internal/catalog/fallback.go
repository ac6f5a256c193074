// Package catalog provides the read-side facade over the tour catalog:
// live repositories, a TTL cache, the in-process store of last good data,
// and a bundled fallback dataset used when everything else fails.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jmespath "github.com/jmespath-community/go-jmespath"
)

//go:embed fallback_data.json
var fallbackRaw []byte

// Collection names served by the facade.
const (
	CollectionPackages     = "packages"
	CollectionDestinations = "destinations"
	CollectionServices     = "services"
)

// fallbackSelectors picks the published slice of each collection out of the
// bundled dataset. Inactive entries are filtered here so callers always see
// data shaped like a live query for active rows.
var fallbackSelectors = map[string]string{
	CollectionPackages:     "packages[?active]",
	CollectionDestinations: "destinations[?active]",
	CollectionServices:     "services[?active]",
}

// Fallback serves collections from the dataset bundled into the binary.
type Fallback struct {
	once    sync.Once
	dataset any
	loadErr error
}

// NewFallback creates a Fallback over the embedded dataset. The dataset is
// parsed lazily on first use.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Collection returns the bundled payload for a collection as JSON.
func (f *Fallback) Collection(name string) (json.RawMessage, error) {
	expr, ok := fallbackSelectors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("no fallback data for collection %q", name)
	}

	f.once.Do(func() {
		f.loadErr = json.Unmarshal(fallbackRaw, &f.dataset)
	})
	if f.loadErr != nil {
		return nil, fmt.Errorf("parse fallback dataset: %w", f.loadErr)
	}

	selected, err := jmespath.Search(expr, f.dataset)
	if err != nil {
		return nil, fmt.Errorf("select fallback collection %q: %w", name, err)
	}
	payload, err := json.Marshal(selected)
	if err != nil {
		return nil, fmt.Errorf("encode fallback collection %q: %w", name, err)
	}
	return payload, nil
}

// Has reports whether the bundled dataset covers a collection.
func (f *Fallback) Has(name string) bool {
	_, ok := fallbackSelectors[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Collections lists the collection names covered by the bundled dataset.
func Collections() []string {
	return []string{CollectionPackages, CollectionDestinations, CollectionServices}
}
