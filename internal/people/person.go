// Package people is a small domain built on facets: a Person base object
// that knows only its name, and Driver and Membership facets attached to it
// at runtime.
package people

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// ErrPersonExists is returned by Create for a taken identifier.
var ErrPersonExists = errors.New("person already exists")

const nameField = "name"

// Person is the base object. Its own record holds only the name; everything
// else arrives as facets.
type Person struct {
	*facet.Faceted[document.Document]

	mu    sync.RWMutex
	id    string
	attrs document.Document
	store types.Store[document.Document]
}

// New returns a person that lives in a single document: its name and all of
// its facets (under "$facets$") share one JSON object. Such a person is not
// safe for concurrent mutation.
func New(name string, opts ...facet.Option) *Person {
	root := document.Document{nameField: name}
	p := &Person{attrs: root}
	p.Faceted = facet.New[document.Document](p, document.NewBackend(root), opts...)
	return p
}

// Create stores a new person under id and returns it.
func Create(s types.Store[document.Document], id, name string, opts ...facet.Option) (*Person, error) {
	_, err := s.LoadSubject(id)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrPersonExists, id)
	case !errors.Is(err, types.ErrSubjectNotFound):
		return nil, err
	}
	if err := s.SaveSubject(id, document.Document{nameField: name}); err != nil {
		return nil, fmt.Errorf("create person %s: %w", id, err)
	}
	return Load(s, id, opts...)
}

// Load returns the stored person id with its facets.
func Load(s types.Store[document.Document], id string, opts ...facet.Option) (*Person, error) {
	attrs, err := s.LoadSubject(id)
	if err != nil {
		return nil, fmt.Errorf("load person %s: %w", id, err)
	}
	backend, err := s.Backend(id)
	if err != nil {
		return nil, err
	}
	p := &Person{id: id, attrs: attrs, store: s}
	p.Faceted = facet.New[document.Document](p, backend, opts...)
	return p, nil
}

// ID returns the store identifier, empty for a person made with New.
func (p *Person) ID() string { return p.id }

// Name returns the person's name.
func (p *Person) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name, _ := p.attrs.GetString(nameField)
	return name
}

// SetName renames the person, saving the record when the person is stored.
func (p *Person) SetName(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store == nil {
		p.attrs[nameField] = name
		return nil
	}
	next, err := p.attrs.Clone()
	if err != nil {
		return err
	}
	next[nameField] = name
	if err := p.store.SaveSubject(p.id, next); err != nil {
		return fmt.Errorf("rename person %s: %w", p.id, err)
	}
	p.attrs = next
	return nil
}

// Document returns a copy of the person's own record. For a person made with
// New the copy includes the facets.
func (p *Person) Document() (document.Document, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.attrs.Clone()
}
