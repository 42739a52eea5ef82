// Package registry maintains the catalog of advertising-location templates.
// It walks the template root for presentation files, pairs each with its
// metadata sidecar, and caches the resulting records until the next refresh.
package registry

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Kind is the display technology of a location.
type Kind string

const (
	KindDigital Kind = "Digital"
	KindStatic  Kind = "Static"
)

// Default attribute values applied when a sidecar is missing or partial.
const (
	DefaultUploadFee    = 3000
	DefaultBaseSOV      = 16.6
	DefaultFaces        = 1
	DefaultSpotDuration = 16
	DefaultLoopDuration = 96
)

// Location is one advertising location and its template.
type Location struct {
	Key          string
	DisplayName  string
	Series       string
	Kind         Kind
	Height       string
	Width        string
	Faces        int
	SpotDuration int
	LoopDuration int
	BaseSOV      float64
	UploadFee    int64
	TemplatePath string
}

// Registry caches key→location records, rebuilt wholesale on refresh.
type Registry struct {
	root string

	mu     sync.RWMutex
	byKey  map[string]*Location
	names  []string
	loaded bool
}

func New(root string) *Registry {
	return &Registry{root: root, byKey: map[string]*Location{}}
}

// Refresh rescans the template root and replaces the cached maps. A missing
// root yields an empty registry; a malformed sidecar degrades to defaults.
func (r *Registry) Refresh() error {
	byKey := map[string]*Location{}
	var names []string

	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		log.Printf("registry: template root %s does not exist, registry empty", r.root)
		r.swap(byKey, names)
		return nil
	}

	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pptx") {
			return nil
		}
		key := normalizeKey(filepath.Base(path))
		loc := buildLocation(key, path)
		byKey[key] = loc
		names = append(names, loc.DisplayName)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", r.root, err)
	}

	sort.Strings(names)
	r.swap(byKey, names)
	log.Printf("registry: refreshed, %d locations", len(byKey))
	return nil
}

func (r *Registry) swap(byKey map[string]*Location, names []string) {
	r.mu.Lock()
	r.byKey = byKey
	r.names = names
	r.loaded = true
	r.mu.Unlock()
}

func buildLocation(key, templatePath string) *Location {
	loc := &Location{
		Key:          key,
		DisplayName:  titleCase(key),
		Kind:         KindDigital,
		Faces:        DefaultFaces,
		SpotDuration: DefaultSpotDuration,
		LoopDuration: DefaultLoopDuration,
		BaseSOV:      DefaultBaseSOV,
		UploadFee:    DefaultUploadFee,
		TemplatePath: templatePath,
	}
	sidecar := filepath.Join(filepath.Dir(templatePath), "metadata.txt")
	meta, err := parseSidecar(sidecar)
	if err != nil {
		log.Printf("registry: sidecar %s unreadable, using defaults: %v", sidecar, err)
		return loc
	}
	meta.apply(loc)
	return loc
}

// ensureLoaded refreshes once if the cache has never been populated.
func (r *Registry) ensureLoaded() {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if !loaded {
		if err := r.Refresh(); err != nil {
			log.Printf("registry: initial refresh failed: %v", err)
		}
	}
}

// DisplayNames returns the cached display names, sorted.
func (r *Registry) DisplayNames() []string {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Get returns the record for an exact canonical key.
func (r *Registry) Get(key string) (*Location, bool) {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.byKey[normalizeKey(key)]
	return loc, ok
}

// Len reports the number of cached locations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// Lookup resolves user input to one location: exact key match, then exact
// display-name match, then substring match in either direction. Zero or
// multiple candidates are errors, not guesses.
func (r *Registry) Lookup(input string) (*Location, error) {
	r.ensureLoaded()
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return nil, fmt.Errorf("empty location name")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if loc, ok := r.byKey[needle]; ok {
		return loc, nil
	}
	for _, loc := range r.byKey {
		if strings.ToLower(loc.DisplayName) == needle {
			return loc, nil
		}
	}

	var matches []*Location
	for _, loc := range r.byKey {
		display := strings.ToLower(loc.DisplayName)
		if strings.Contains(display, needle) || strings.Contains(needle, display) ||
			strings.Contains(loc.Key, needle) || strings.Contains(needle, loc.Key) {
			matches = append(matches, loc)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, fmt.Errorf("unknown location %q", input)
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].Key < matches[j].Key })
		keys := make([]string, len(matches))
		for i, m := range matches {
			keys[i] = m.Key
		}
		return nil, fmt.Errorf("ambiguous location %q: matches %s", input, strings.Join(keys, ", "))
	}
}

// MultipleSizes is the sentinel height/width value for mixed-format series.
const MultipleSizes = "Multiple Sizes"

// HasMultipleSizes reports whether either dimension carries the sentinel.
func (l *Location) HasMultipleSizes() bool {
	return strings.Contains(strings.ToLower(l.Height), "multiple sizes") ||
		strings.Contains(strings.ToLower(l.Width), "multiple sizes")
}

func normalizeKey(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(strings.TrimSpace(base))
}

// titleCase turns a key into a display name when no sidecar provides one:
// underscores and hyphens become spaces and each word is capitalized.
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '_' || r == '-'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
