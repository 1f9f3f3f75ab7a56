// Package locale holds the display strings of the generated spreadsheets.
package locale

import (
	"sort"

	"github.com/Vitruves/metricalc/internal/models"
)

// Translation is the set of strings used for one language.
type Translation struct {
	ClassNames   []string
	Average      string
	Headers      []string
	MetricsSheet string
	DataSheet    string
}

var builtin = map[string]Translation{
	"cs": {
		ClassNames:   []string{"Nesklizená plodina", "Sklizená plodina"},
		Average:      "Průměr",
		Headers:      []string{"Třída", "Přesnost (Precision)", "Úplnost (Recall)", "F1 skóre", "Celková přesnost (Accuracy)", "Kappa"},
		MetricsSheet: "Metriky",
		DataSheet:    "Data",
	},
	"en": {
		ClassNames:   []string{"Unharvested crop", "Harvested crop"},
		Average:      "Average",
		Headers:      []string{"Class", "Precision", "Recall", "F1 score", "Accuracy", "Kappa"},
		MetricsSheet: "Metrics",
		DataSheet:    "Data",
	},
}

// Catalog resolves translations by language tag.
type Catalog struct {
	languages map[string]Translation
}

// New builds a catalog from the built-in translations with the configured
// label overrides applied on top. Unknown languages in overrides are added
// and inherit the English headers and sheet names.
func New(overrides map[string]models.LabelConfig) *Catalog {
	c := &Catalog{languages: make(map[string]Translation, len(builtin)+len(overrides))}
	for lang, tr := range builtin {
		c.languages[lang] = tr
	}

	for lang, o := range overrides {
		tr, ok := c.languages[lang]
		if !ok {
			tr = builtin["en"]
			tr.ClassNames = nil
		}
		if len(o.ClassNames) > 0 {
			tr.ClassNames = append([]string(nil), o.ClassNames...)
		}
		if o.Average != "" {
			tr.Average = o.Average
		}
		if len(o.Headers) > 0 {
			tr.Headers = append([]string(nil), o.Headers...)
		}
		if o.MetricsSheet != "" {
			tr.MetricsSheet = o.MetricsSheet
		}
		if o.DataSheet != "" {
			tr.DataSheet = o.DataSheet
		}
		c.languages[lang] = tr
	}

	return c
}

// Lookup returns the translation for a language.
func (c *Catalog) Lookup(language string) (Translation, error) {
	tr, ok := c.languages[language]
	if !ok {
		return Translation{}, models.ConfigErrorf("unsupported language %q", language)
	}
	return tr, nil
}

// Languages lists the known language tags, sorted.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.languages))
	for lang := range c.languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ClassNames returns k class names followed by the average label. Having
// fewer names than classes is a configuration error.
func (c *Catalog) ClassNames(k int, language string) ([]string, error) {
	tr, err := c.Lookup(language)
	if err != nil {
		return nil, err
	}
	if len(tr.ClassNames) < k {
		return nil, models.ConfigErrorf("language %q defines %d class names, table has %d classes",
			language, len(tr.ClassNames), k)
	}

	names := make([]string, 0, k+1)
	names = append(names, tr.ClassNames[:k]...)
	return append(names, tr.Average), nil
}

// Headers returns the six metrics-sheet column titles.
func (c *Catalog) Headers(language string) ([]string, error) {
	tr, err := c.Lookup(language)
	if err != nil {
		return nil, err
	}
	if len(tr.Headers) != 6 {
		return nil, models.ConfigErrorf("language %q defines %d headers, need 6", language, len(tr.Headers))
	}
	return tr.Headers, nil
}
