package sqlite

// Schema DDL. SQLite is a query cache rebuilt from the JSONL files on every
// attach, so there are no migrations.
const (
	createFacets = `CREATE TABLE facets (
    owner_id TEXT NOT NULL,
    facet_type TEXT NOT NULL,
    facet_id TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (owner_id, facet_type, facet_id)
);`

	createSubjects = `CREATE TABLE subjects (
    subject_id TEXT PRIMARY KEY,
    attrs TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxFacetsType = `CREATE INDEX idx_facets_type ON facets(facet_type);`
)

var schemaDDL = []string{
	createFacets,
	createSubjects,
	idxFacetsType,
}

// Table names.
const (
	facetsTable   = "facets"
	subjectsTable = "subjects"
)

// column describes one column of a mirrored table. JSON columns hold encoded
// data and are embedded in JSONL records as JSON values, not strings.
type column struct {
	name string
	json bool
}

// tableMapping ties a table to its JSONL file. Rows are written in key
// order so files diff cleanly.
type tableMapping struct {
	table   string
	file    string
	columns []column
	orderBy string
}

var tableMappings = []tableMapping{
	{
		table: facetsTable,
		file:  "facets.jsonl",
		columns: []column{
			{name: "owner_id"},
			{name: "facet_type"},
			{name: "facet_id"},
			{name: "data", json: true},
			{name: "created_at"},
			{name: "updated_at"},
		},
		orderBy: "owner_id, facet_type, facet_id",
	},
	{
		table: subjectsTable,
		file:  "subjects.jsonl",
		columns: []column{
			{name: "subject_id"},
			{name: "attrs", json: true},
			{name: "created_at"},
			{name: "updated_at"},
		},
		orderBy: "subject_id",
	},
}

func mappingFor(table string) (tableMapping, bool) {
	for _, m := range tableMappings {
		if m.table == table {
			return m, true
		}
	}
	return tableMapping{}, false
}

func (m tableMapping) columnNames() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.name
	}
	return names
}
