// Package linkcache persists the outcome of a placement run keyed by a
// content hash of its inputs, so a watch-mode re-link with unchanged
// sections and script can skip straight to the previous result.
package linkcache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/bankforge/rgblink/internal/section"
)

// Key is a content hash identifying one (memory model, section set, script)
// input combination.
type Key string

// Entry is everything a cache hit needs to short-circuit both placement and
// report rendering.
type Entry struct {
	Assignments map[string]Assignment `json:"assignments"`
	MapFile     string                `json:"map_file"`
	SymFile     string                `json:"sym_file"`
}

// Assignment is the final (bank, org) a cache hit restores onto a section.
type Assignment struct {
	Bank uint32 `json:"bank"`
	Org  uint16 `json:"org"`
}

// Cache is an on-disk, content-addressed store of one Entry per Key.
type Cache struct {
	root string
}

// Open ensures root exists and returns a Cache rooted there.
func Open(root string) (*Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("linkcache: %w", err)
	}

	return &Cache{root: root}, nil
}

// Fingerprint derives the cache Key from the script bytes and the section
// set's names, sizes, and constraints: any change to either invalidates the
// previous result.
func Fingerprint(scriptBytes []byte, secs []*section.Section, modelFingerprint []byte) Key {
	sorted := make([]*section.Section, len(secs))
	copy(sorted, secs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h, _ := blake2b.New256(nil)
	_, _ = h.Write(scriptBytes)
	_, _ = h.Write(modelFingerprint)

	for _, s := range sorted {
		fmt.Fprintf(h, "%s|%d|%d|%v|%d|%v|%d|%v|%d|%d\n",
			s.Name, s.Region, s.Size,
			s.IsBankFixed, s.Bank, s.IsAddressFixed, s.Org, s.IsAlignFixed, s.AlignMask, s.AlignOffset)
	}

	return Key(hex.EncodeToString(h.Sum(nil)))
}

func (c *Cache) path(key Key) string {
	return filepath.Join(c.root, string(key)+".json")
}

// Get returns the cached Entry for key, or ok=false on a miss.
func (c *Cache) Get(key Key) (Entry, bool, error) {
	unlock, err := lockDir(c.root)
	if err != nil {
		return Entry{}, false, err
	}
	defer unlock()

	b, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}

		return Entry{}, false, fmt.Errorf("linkcache: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("linkcache: corrupt entry %s: %w", key, err)
	}

	return e, true, nil
}

// Put writes e under key via temp-file-then-rename, so a crash mid-write
// never leaves a half-written entry visible to a concurrent Get.
func (c *Cache) Put(key Key, e Entry) error {
	unlock, err := lockDir(c.root)
	if err != nil {
		return err
	}
	defer unlock()

	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("linkcache: %w", err)
	}

	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("linkcache: %w", err)
	}

	if err := os.Rename(tmp, c.path(key)); err != nil {
		return fmt.Errorf("linkcache: %w", err)
	}

	return nil
}

// Apply restores a cache hit's assignments onto the matching sections by
// name; sections absent from the entry are left untouched.
func Apply(e Entry, secs []*section.Section) {
	for _, s := range secs {
		a, ok := e.Assignments[s.Name]
		if !ok {
			continue
		}

		s.Assign(a.Bank, a.Org)
	}
}

// Snapshot builds the Entry to persist from a finished placement run.
func Snapshot(secs []*section.Section, mapFile, symFile string) Entry {
	e := Entry{Assignments: make(map[string]Assignment, len(secs)), MapFile: mapFile, SymFile: symFile}

	for _, s := range secs {
		if !s.Placed() {
			continue
		}

		e.Assignments[s.Name] = Assignment{Bank: s.Bank, Org: s.Org}
	}

	return e
}
