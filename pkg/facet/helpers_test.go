package facet

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/facets/pkg/types"
)

type doc = map[string]any

// memBackend is a map backend implementing every optional interface except
// InsertIfAbsent.
type memBackend struct {
	mu   sync.Mutex
	data map[types.Key]doc
	adds int
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[types.Key]doc)}
}

func (b *memBackend) HasFacetData(t, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[types.NewKey(t, id)]
	return ok, nil
}

func (b *memBackend) GetFacetData(t, id string) (doc, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[types.NewKey(t, id)]
	return d, ok, nil
}

func (b *memBackend) AddFacetData(t, id string, d doc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := types.NewKey(t, id)
	if _, ok := b.data[k]; ok {
		return types.ErrDuplicateFacet
	}
	b.data[k] = d
	b.adds++
	return nil
}

func (b *memBackend) SetFacetData(t, id string, d doc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := types.NewKey(t, id)
	if _, ok := b.data[k]; !ok {
		return types.ErrFacetNotFound
	}
	b.data[k] = d
	return nil
}

func (b *memBackend) RemoveFacetData(t, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := types.NewKey(t, id)
	_, ok := b.data[k]
	delete(b.data, k)
	return ok, nil
}

func (b *memBackend) FacetKeys() ([]types.Key, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]types.Key, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

func (b *memBackend) addCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adds
}

// atomicBackend adds an atomic insert.
type atomicBackend struct {
	*memBackend
}

func (b atomicBackend) InsertFacetData(t, id string, d doc) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := types.NewKey(t, id)
	if _, ok := b.data[k]; ok {
		return false, nil
	}
	b.data[k] = d
	b.adds++
	return true, nil
}

// coreBackend hides every optional interface.
type coreBackend struct {
	types.Backend[doc]
}

// failingBackend fails every call.
type failingBackend struct{}

var errBackend = errors.New("backend down")

func (failingBackend) HasFacetData(string, string) (bool, error)      { return false, errBackend }
func (failingBackend) GetFacetData(string, string) (doc, bool, error) { return nil, false, errBackend }
func (failingBackend) AddFacetData(string, string, doc) error         { return errBackend }

// person is a base object with methods for forwarding.
type person struct {
	mu   sync.Mutex
	name string
}

var errBoom = errors.New("boom")

func (p *person) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *person) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

func (p *person) Greet(greeting string, others ...string) string {
	return fmt.Sprintf("%s %s", greeting, strings.Join(append([]string{p.Name()}, others...), ", "))
}

func (p *person) Fail() error { return errBoom }

func (p *person) Split() (string, int, error) { return p.Name(), len(p.Name()), nil }

func (p *person) Pointer(d doc) bool { return d == nil }

func (p *person) Age() int { return 40 }

// Capabilities used across the tests.

func licenceNumber(v *View[doc], _ ...any) (any, error) {
	d, err := v.FacetData()
	if err != nil {
		return nil, err
	}
	return d["number"], nil
}

func setLicenceNumber(v *View[doc], args ...any) (any, error) {
	number, err := Arg[string](args, 0)
	if err != nil {
		return nil, err
	}
	d, err := v.FacetData()
	if err != nil {
		return nil, err
	}
	d["number"] = number
	return nil, nil
}

func driving(v *View[doc], _ ...any) (any, error) {
	name, err := Call[string](v, "Name")
	if err != nil {
		return nil, err
	}
	number, err := Call[string](v, "LicenceNumber")
	if err != nil {
		return nil, err
	}
	return name + " drives with " + number, nil
}

var driverCap = Unique[doc]("test.Driver").
	Default("LicenceNumber", licenceNumber).
	Default("SetLicenceNumber", setLicenceNumber).
	Default("Driving", driving).
	Forward("Name", func() string { return "" }).
	Forward("SetName", func(string) {}).
	MustBuild()

func teamID(v *View[doc]) (string, error) {
	d, err := v.FacetData()
	if err != nil {
		return "", err
	}
	team, _ := d["team"].(string)
	return team, nil
}

var teamCap = General[doc]("test.Team").
	Identify(teamID).
	Default("Position", func(v *View[doc], _ ...any) (any, error) {
		d, err := v.FacetData()
		if err != nil {
			return nil, err
		}
		return d["position"], nil
	}).
	MustBuild()

func licence(number string) Initializer[doc] {
	return Value(doc{"number": number})
}

func membership(team, position string) Initializer[doc] {
	return Value(doc{"team": team, "position": position})
}
