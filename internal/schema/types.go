package schema

// Schema represents a complete database schema
type Schema struct {
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name       string
	Columns    []Column
	Relations  []Relation
	Indexes    []Index
	PrimaryKey []string
}

// Column represents a table column.
//
// Declared columns carry a Kind (and Length for varchar) which a dialect
// renders into a SQL type. Inspected columns carry the engine's own Type.
type Column struct {
	Name            string
	Type            string
	Kind            Kind
	Length          int
	Nullable        bool
	DefaultValue    *string
	IsUnique        bool
	CheckConstraint *string
	EnumValues      []string
}

// Relation represents a foreign key relationship
type Relation struct {
	TargetTable  string
	TargetColumn string
	SourceColumn string
	Cardinality  string // 1:1, 1:N, N:1
}

// Index represents a database index
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// Kind is the logical type of a declared column.
type Kind int

const (
	KindUnknown Kind = iota
	KindInteger
	KindVarchar
	KindText
	KindDecimal
	KindDate
)

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsIndexed reports whether some index of t starts with column.
func (t *Table) IsIndexed(column string) bool {
	for _, idx := range t.Indexes {
		if len(idx.Columns) > 0 && idx.Columns[0] == column {
			return true
		}
	}
	return false
}
