// Package locale loads a restaurant pack: the menu catalog, the modifier
// vocabulary and the dialect lexicon, from one YAML document. The
// Churrascaria Quitanda pt-PT pack is embedded and used when no path is
// configured.
package locale

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nadzzz/ordertaker/internal/lexicon"
	"github.com/nadzzz/ordertaker/internal/menu"
)

//go:embed packs/*.yaml
var packs embed.FS

// DefaultPack is the embedded pack used when no path is given.
const DefaultPack = "packs/pt_PT.yaml"

// Bundle is a loaded, validated pack. It is immutable and shared by every
// call session.
type Bundle struct {
	Restaurant string
	Language   string
	Catalog    *menu.Catalog
	Lexicon    *lexicon.Lexicon
}

type packFile struct {
	Restaurant string          `yaml:"restaurant"`
	Language   string          `yaml:"language"`
	Categories []categoryDoc   `yaml:"categories"`
	Items      []itemDoc       `yaml:"items"`
	Modifiers  []modifierDoc   `yaml:"modifiers"`
	Lexicon    lexicon.Lexicon `yaml:"lexicon"`
}

type categoryDoc struct {
	Name     string              `yaml:"name"`
	Title    string              `yaml:"title"`
	Requires []menu.ModifierKind `yaml:"requires"`
}

type itemDoc struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Price    string   `yaml:"price"`
	Aliases  []string `yaml:"aliases"`
	HalfOf   string   `yaml:"half_of"`
}

type modifierDoc struct {
	Kind    menu.ModifierKind `yaml:"kind"`
	Value   string            `yaml:"value"`
	Aliases []string          `yaml:"aliases"`
}

// Default loads the embedded pt-PT pack.
func Default() (*Bundle, error) {
	data, err := packs.ReadFile(DefaultPack)
	if err != nil {
		return nil, fmt.Errorf("reading embedded pack: %w", err)
	}
	return Parse(data)
}

// Load reads a pack from disk. An empty path selects the embedded pack.
func Load(path string) (*Bundle, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pack %s: %w", path, err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes and validates a pack document.
func Parse(data []byte) (*Bundle, error) {
	var f packFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding pack: %w", err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("pack has no menu items")
	}

	cats := make([]menu.Category, 0, len(f.Categories))
	for _, c := range f.Categories {
		title := c.Title
		if title == "" {
			title = c.Name
		}
		cats = append(cats, menu.Category{Name: c.Name, Title: title, Requires: c.Requires})
	}
	entries := make([]menu.Entry, 0, len(f.Items))
	for _, it := range f.Items {
		entries = append(entries, menu.Entry{
			Name:     it.Name,
			Category: it.Category,
			Aliases:  it.Aliases,
			HalfOf:   it.HalfOf,
			Price:    it.Price,
		})
	}
	mods := make([]menu.ModifierValue, 0, len(f.Modifiers))
	for _, m := range f.Modifiers {
		mods = append(mods, menu.ModifierValue{Kind: m.Kind, Value: m.Value, Aliases: m.Aliases})
	}

	catalog, err := menu.New(cats, entries, mods)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	lex := f.Lexicon
	// The restaurant's own name is spoken in every greeting and must never
	// be captured as the customer's.
	lex.NameStopwords = append(lex.NameStopwords, strings.Fields(f.Restaurant)...)
	if err := lex.Prepare(); err != nil {
		return nil, err
	}

	return &Bundle{
		Restaurant: f.Restaurant,
		Language:   f.Language,
		Catalog:    catalog,
		Lexicon:    &lex,
	}, nil
}
