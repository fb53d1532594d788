package people

import (
	"fmt"

	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

const licenceField = "licence_number"

// DriverCapability makes a person a driver. A person holds at most one
// licence. Name and SetName are served by the Person itself.
var DriverCapability = facet.Unique[document.Document](facet.NameOf[Driver]()).
	Setup(requireField(licenceField)).
	Default("LicenceNumber", licenceNumber).
	Default("SetLicenceNumber", setLicenceNumber).
	Default("Driving", driving).
	Forward("Name", (func() string)(nil)).
	Forward("SetName", (func(string) error)(nil)).
	MustBuild()

func licenceNumber(v *facet.View[document.Document], _ ...any) (any, error) {
	return stringField(v, licenceField)
}

func setLicenceNumber(v *facet.View[document.Document], args ...any) (any, error) {
	number, err := facet.Arg[string](args, 0)
	if err != nil {
		return nil, err
	}
	if number == "" {
		return nil, fmt.Errorf("%w: empty licence number", types.ErrInvalidArgument)
	}
	return nil, setField(v, licenceField, number)
}

func driving(v *facet.View[document.Document], _ ...any) (any, error) {
	name, err := facet.Call[string](v, "Name")
	if err != nil {
		return nil, err
	}
	number, err := facet.Call[string](v, "LicenceNumber")
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s drives with licence %s", name, number), nil
}

// Driver is the typed face of a person's Driver facet.
type Driver struct {
	view *facet.View[document.Document]
}

// AddDriver gives p a driving licence. It fails with types.ErrDuplicateFacet
// if p already has one, leaving that licence untouched.
func AddDriver(p *Person, licence string) (*Driver, error) {
	v, err := p.AddFacet(DriverCapability, facet.Value(document.Document{licenceField: licence}))
	if err != nil {
		return nil, err
	}
	return &Driver{view: v}, nil
}

// DriverOf returns p's Driver facet or types.ErrFacetNotFound.
func DriverOf(p *Person) (*Driver, error) {
	v, err := p.GetFacet(DriverCapability)
	if err != nil {
		return nil, err
	}
	return &Driver{view: v}, nil
}

// View returns the underlying facet view.
func (d *Driver) View() *facet.View[document.Document] { return d.view }

func (d *Driver) LicenceNumber() (string, error) {
	return facet.Call[string](d.view, "LicenceNumber")
}

func (d *Driver) SetLicenceNumber(number string) error {
	return facet.Do(d.view, "SetLicenceNumber", number)
}

// Driving describes the driver, combining the person's name with the
// licence.
func (d *Driver) Driving() (string, error) {
	return facet.Call[string](d.view, "Driving")
}

// Name is forwarded to the person.
func (d *Driver) Name() (string, error) {
	return facet.Call[string](d.view, "Name")
}

// SetName is forwarded to the person.
func (d *Driver) SetName(name string) error {
	return facet.Do(d.view, "SetName", name)
}
