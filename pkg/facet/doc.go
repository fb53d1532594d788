// Package facet lets a base object acquire facets at runtime: named bundles of
// data and behavior that the base type never declares.
//
// # Capabilities
//
// A Capability describes a facet type. It has a name, which with the facet
// identifier forms the types.Key the facet is stored under, and an operation
// table. Each operation is either a default, a Go function that receives the
// view it runs on as an explicit receiver, or a forward, served by the base
// object's method of the same name and signature:
//
//	var Driver = facet.Unique[document.Document](facet.NameOf[Driver]()).
//		Default("LicenceNumber", licenceNumber).
//		Forward("Name", func() string { return "" }).
//		MustBuild()
//
// Unique capabilities use their own name as identifier, so a base object
// carries at most one of them. General capabilities compute the identifier
// with Identify, usually from the facet's data, or take it from the caller
// via Faceted.AddFacetByID.
//
// # Views
//
// Every fetch returns a View. A view holds no data; its dispatch table,
// built when the view is created, sends FacetData to the backend, defaults to
// their Go functions, and forwards to the base object through reflection.
// Views come in two modes. Attach first builds a setup view over the
// uncommitted data to compute the identifier; only FacetData and defaults
// work there. Once the data is committed the facet is served by operational
// views, which answer the whole contract.
//
// Views are disposable. The container keeps them in a cache (weak by default,
// see WithBoundedCache and WithoutCache) purely to save rebuilds.
//
// # Containers
//
// Faceted is the container, meant to be embedded in the base type:
//
//	type Person struct {
//		*facet.Faceted[document.Document]
//		name string
//	}
//
//	p := &Person{name: "John"}
//	p.Faceted = facet.New[document.Document](p, document.NewBackend(nil))
//
// Durable state lives in a types.Backend. Attach never overwrites: a taken
// key fails with types.ErrDuplicateFacet. When the backend implements
// types.InsertIfAbsent the insert is atomic; otherwise the container
// serializes attaches itself.
package facet
