// Package catalog holds the static quiz content: numbered levels, each with
// an optional instructional video and an ordered list of quiz questions.
// The catalog is loaded once at startup and never changes afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct"`
}

type Level struct {
	Video     string     `json:"video"`
	Thumbnail string     `json:"thumbnail"`
	Questions []Question `json:"questions"`
}

type Catalog struct {
	levels  map[int]Level
	numbers []int
}

//go:embed default_catalog.json
var defaultCatalog []byte

// Load reads the catalog from the given JSON file, or falls back to the
// embedded default catalog when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
	}
	return Parse(data)
}

// Parse decodes a catalog document: a JSON object keyed by level number.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]Level
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	levels := make(map[int]Level, len(raw))
	for key, level := range raw {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parse catalog: level key %q is not a number", key)
		}
		levels[n] = level
	}
	return New(levels), nil
}

func New(levels map[int]Level) *Catalog {
	numbers := make([]int, 0, len(levels))
	for n := range levels {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return &Catalog{levels: levels, numbers: numbers}
}

func (c *Catalog) Get(n int) (Level, bool) {
	level, ok := c.levels[n]
	return level, ok
}

// Questions returns nil for a level that is not in the catalog, so an
// out-of-range level behaves like an exhausted one.
func (c *Catalog) Questions(n int) []Question {
	return c.levels[n].Questions
}

func (c *Catalog) MaxLevel() int {
	if len(c.numbers) == 0 {
		return 0
	}
	return c.numbers[len(c.numbers)-1]
}

// Numbers returns all level numbers in ascending order.
func (c *Catalog) Numbers() []int {
	out := make([]int, len(c.numbers))
	copy(out, c.numbers)
	return out
}

func (c *Catalog) Len() int {
	return len(c.numbers)
}
