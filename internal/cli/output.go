package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/mesh-intelligence/facets/internal/people"
	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
)

// personOutput is how a person is rendered by show and list.
type personOutput struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Facets []facetOutput `json:"facets,omitempty"`
}

type facetOutput struct {
	Type string            `json:"type"`
	ID   string            `json:"id,omitempty"`
	Data document.Document `json:"data"`
}

// output writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) output(w io.Writer, v any, text func(w io.Writer)) error {
	if !a.jsonMode {
		text(w)
		return nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// describeFacets reads every facet of p. Unique facets carry no ID.
func describeFacets(p *people.Person) ([]facetOutput, error) {
	keys, err := p.Facets()
	if err != nil {
		return nil, err
	}
	out := make([]facetOutput, 0, len(keys))
	for _, k := range keys {
		data, ok, err := p.Backend().GetFacetData(k.FacetType, k.FacetID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		f := facetOutput{Type: facet.ShortName(k.FacetType), Data: data}
		if !k.IsUnique() {
			f.ID = k.FacetID
		}
		out = append(out, f)
	}
	return out, nil
}

func writeFacets(w io.Writer, facets []facetOutput) {
	for _, f := range facets {
		label := f.Type
		if f.ID != "" {
			label += "[" + f.ID + "]"
		}
		fields := make([]string, 0, len(f.Data))
		for _, k := range sortedKeys(f.Data) {
			fields = append(fields, fmt.Sprintf("%s=%v", k, f.Data[k]))
		}
		fmt.Fprintf(w, "  %s %s\n", label, strings.Join(fields, " "))
	}
}

func sortedKeys(d document.Document) []string {
	return slices.Sorted(maps.Keys(d))
}
