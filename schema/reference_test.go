package schema_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula"
	"github.com/syssam/tabula/dialect"
	"github.com/syssam/tabula/dialect/sql"
	"github.com/syssam/tabula/schema"
)

func newLocations(t *testing.T) *schema.Dynamic {
	t.Helper()
	l := schema.NewDynamic("locations")
	l.Column("id", schema.Int).PrimaryKey().BindTo("id")
	l.Column("city", schema.String).BindTo("city")
	require.NoError(t, l.Err())
	return l
}

func newDepartments(t *testing.T) *schema.Dynamic {
	t.Helper()
	d := schema.NewDynamic("departments")
	d.Column("id", schema.Int).PrimaryKey().BindTo("id")
	d.Column("name", schema.String).BindTo("name")
	d.Column("location_id", schema.Int).References(newLocations(t), "location")
	require.NoError(t, d.Err())
	return d
}

func newEmployees(t *testing.T) *schema.Dynamic {
	t.Helper()
	e := schema.NewDynamic("employees")
	e.Column("id", schema.Int).PrimaryKey().BindTo("id")
	e.Column("name", schema.String).BindTo("name")
	e.Column("department_id", schema.Int).References(newDepartments(t), "department")
	require.NoError(t, e.Err())
	return e
}

func referenceAlias(t *testing.T, tbl *schema.Table, column string) string {
	t.Helper()
	ref, err := tbl.Referenced(column)
	require.NoError(t, err)
	return ref.Schema().Ref()
}

func TestCircularReference(t *testing.T) {
	b := schema.NewDynamic("b")
	b.Column("id", schema.Int).PrimaryKey().BindTo("id")
	_, err := b.RegisterColumn("t_id", schema.Int)
	require.NoError(t, err)

	a := schema.NewDynamic("a")
	a.Column("id", schema.Int).PrimaryKey().BindTo("id")
	a.Column("b_id", schema.Int).References(b, "b")
	require.NoError(t, a.Err())

	tt := schema.NewDynamic("t")
	tt.Column("id", schema.Int).PrimaryKey().BindTo("id")
	tt.Column("a_id", schema.Int).References(a, "a")
	require.NoError(t, tt.Err())

	before := b.Columns()
	err = b.Bind("t_id", schema.References(tt, "t"))
	require.ErrorIs(t, err, tabula.ErrCircularReference)
	var cErr *tabula.CircularReferenceError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "b", cErr.Table)
	assert.Equal(t, []string{"b", "t", "a", "b"}, cErr.Path)
	assert.Equal(t, before, b.Columns())
	assert.Nil(t, b.MustLookup("t_id").Binding())

	// The failed call did not consume an alias.
	other := newLocations(t)
	require.NoError(t, b.Bind("t_id", schema.References(other, "location")))
	assert.Equal(t, "_ref0", referenceAlias(t, b.Table, "t_id"))
}

func TestSelfReference(t *testing.T) {
	e := schema.NewDynamic("employees")
	e.Column("id", schema.Int).PrimaryKey().BindTo("id")
	e.Column("manager_id", schema.Int).References(e, "manager")
	err := e.Err()
	require.True(t, tabula.IsCircularReference(err))
	assert.Nil(t, e.MustLookup("manager_id").Binding())
}

func TestUnsupportedAlias(t *testing.T) {
	plain := schema.NewTable("departments")
	_, err := plain.RegisterColumn("id", schema.Int)
	require.NoError(t, err)
	require.NoError(t, plain.MarkPrimaryKey("id"))

	e := schema.NewTable("employees")
	_, err = e.RegisterColumn("department_id", schema.Int)
	require.NoError(t, err)
	err = e.Bind("department_id", schema.References(plain, "department"))
	require.ErrorIs(t, err, tabula.ErrUnsupportedAlias)
	var aErr *tabula.UnsupportedAliasError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, "departments", aErr.Table)
	assert.Nil(t, e.MustLookup("department_id").Binding())
}

func TestReferenceCopies(t *testing.T) {
	departments := newDepartments(t)
	e := schema.NewDynamic("employees")
	e.Column("id", schema.Int).PrimaryKey().BindTo("id")
	e.Column("department_id", schema.Int).References(departments, "department")
	e.Column("previous_department_id", schema.Int).References(departments, "previousDepartment")
	require.NoError(t, e.Err())

	// Every table of the tree gets its own alias from the owner's counter.
	joins, err := e.Joins()
	require.NoError(t, err)
	var aliases []string
	for _, j := range joins {
		aliases = append(aliases, j.Table.String())
	}
	assert.Equal(t, []string{
		"departments AS _ref0",
		"locations AS _ref1",
		"departments AS _ref2",
		"locations AS _ref3",
	}, aliases)

	// The stored reference is a copy, not the table passed to Bind.
	ref, err := e.Referenced("department_id")
	require.NoError(t, err)
	assert.NotSame(t, departments.Table, ref.Schema())
	assert.Equal(t, "departments", ref.Schema().Name())

	// Later changes to the source do not reach the copy.
	_, err = departments.RegisterColumn("budget", schema.Float64)
	require.NoError(t, err)
	_, err = ref.Schema().Lookup("budget")
	require.ErrorIs(t, err, tabula.ErrUnknownColumn)

	_, err = e.Referenced("id")
	require.Error(t, err)
}

// chainTable counts the Alias calls made while copying references.
type chainTable struct {
	*schema.Dynamic
	aliases *int
}

func (c chainTable) Alias(alias string) (schema.Interface, error) {
	*c.aliases++
	cp := schema.NewDynamic(c.Name(), schema.WithAlias(alias))
	return chainTable{Dynamic: cp, aliases: c.aliases}, cp.CopyDefinitionsFrom(c.Table)
}

func TestReferenceChainCopies(t *testing.T) {
	var aliases int
	prev := chainTable{Dynamic: schema.NewDynamic("t0"), aliases: &aliases}
	prev.Column("id", schema.Int).PrimaryKey().BindTo("id")
	for i := 1; i <= 6; i++ {
		next := chainTable{Dynamic: schema.NewDynamic(fmt.Sprintf("t%d", i)), aliases: &aliases}
		next.Column("id", schema.Int).PrimaryKey().BindTo("id")
		next.Column("prev_id", schema.Int).References(prev, "prev")
		require.NoError(t, next.Err())
		prev = next
	}

	aliases = 0
	top := schema.NewDynamic("top")
	top.Column("t6_id", schema.Int).References(prev, "t6")
	require.NoError(t, top.Err())
	assert.Equal(t, 7, aliases, "one alias per table of the chain")

	var got []string
	ref, err := top.Referenced("t6_id")
	require.NoError(t, err)
	for {
		got = append(got, ref.Schema().Ref())
		if ref, err = ref.Schema().Referenced("prev_id"); err != nil {
			break
		}
	}
	assert.Equal(t, []string{"_ref0", "_ref1", "_ref2", "_ref3", "_ref4", "_ref5", "_ref6"}, got)

	joins, err := top.Joins()
	require.NoError(t, err)
	assert.Len(t, joins, 7)
}

func TestAliasedIndependence(t *testing.T) {
	employees := newEmployees(t)

	x1, err := schema.Aliased(employees, "x")
	require.NoError(t, err)
	x2, err := schema.Aliased(employees, "x")
	require.NoError(t, err)

	assert.NotSame(t, x1, x2)
	assert.NotSame(t, x1.Table, x2.Table)
	assert.Equal(t, "x", x1.Ref())
	assert.Equal(t, "employees", x1.Name())
	assert.Equal(t, "id", x1.PrimaryKey().Name())

	for _, x := range []*schema.Dynamic{x1, x2} {
		assert.Equal(t, "_ref0", referenceAlias(t, x.Table, "department_id"))
		dep, err := x.Referenced("department_id")
		require.NoError(t, err)
		assert.Equal(t, "_ref1", referenceAlias(t, dep.Schema(), "location_id"))
	}
	r1, _ := x1.Referenced("department_id")
	r2, _ := x2.Referenced("department_id")
	assert.NotSame(t, r1.Schema(), r2.Schema())

	// Columns of the copies belong to the copies.
	assert.Same(t, x1.Table, x1.MustLookup("id").Table())
	assert.Equal(t, "x.id", x1.MustLookup("id").String())

	_, err = x1.RegisterColumn("email", schema.String)
	require.NoError(t, err)
	_, err = x2.Lookup("email")
	require.ErrorIs(t, err, tabula.ErrUnknownColumn)
	_, err = employees.Lookup("email")
	require.ErrorIs(t, err, tabula.ErrUnknownColumn)
}

// departmentTable is a typed table variant implementing Aliaser with
// CopyDefinitionsFrom.
type departmentTable struct {
	*schema.Table
	id   *schema.Column
	name *schema.Column
}

func newDepartmentTable(opts ...schema.Option) *departmentTable {
	t := &departmentTable{Table: schema.NewTable("departments", opts...)}
	t.id = t.Column("id", schema.Int).PrimaryKey().BindTo("id").Column()
	t.name = t.Column("name", schema.String).BindTo("name").Column()
	return t
}

func (d *departmentTable) Alias(alias string) (schema.Interface, error) {
	cp := &departmentTable{Table: schema.NewTable("departments", schema.WithAlias(alias))}
	if err := cp.CopyDefinitionsFrom(d.Table); err != nil {
		return nil, err
	}
	cp.id = cp.MustLookup("id")
	cp.name = cp.MustLookup("name")
	return cp, nil
}

func TestTypedAlias(t *testing.T) {
	d := newDepartmentTable()
	require.NoError(t, d.Err())

	cp, err := schema.Aliased(d, "d2")
	require.NoError(t, err)
	assert.Equal(t, "d2", cp.Ref())
	assert.Equal(t, "d2.name", cp.name.String())
	assert.Equal(t, "departments.name", d.name.String())

	e := schema.NewDynamic("employees")
	e.Column("department_id", schema.Int).References(d, "department")
	require.NoError(t, e.Err())
	ref, err := e.Referenced("department_id")
	require.NoError(t, err)
	require.IsType(t, &departmentTable{}, ref)
	assert.Equal(t, "_ref0", ref.(*departmentTable).Ref())
}

func TestCopyDefinitionsFrom(t *testing.T) {
	employees := newEmployees(t)
	cp := schema.NewDynamic("employees", schema.WithAlias("boss"))
	require.NoError(t, cp.CopyDefinitionsFrom(employees.Table))

	assert.Len(t, cp.Columns(), 3)
	assert.Equal(t, "id", cp.PrimaryKey().Name())
	assert.Equal(t, "_ref0", referenceAlias(t, cp.Table, "department_id"))

	// A second top-level copy restarts the counter.
	require.NoError(t, cp.CopyDefinitionsFrom(employees.Table))
	assert.Equal(t, "_ref0", referenceAlias(t, cp.Table, "department_id"))
	cp.Column("manager_id", schema.Int).References(newLocations(t), "office")
	require.NoError(t, cp.Err())
	assert.Equal(t, "_ref2", referenceAlias(t, cp.Table, "manager_id"))
}

func TestSelect(t *testing.T) {
	employees := newEmployees(t)
	tests := []struct {
		name           string
		withReferences bool
		query          string
	}{
		{
			name:  "without_references",
			query: "SELECT employees.id AS employees__id, employees.name AS employees__name, employees.department_id AS employees__department_id FROM employees",
		},
		{
			name:           "with_references",
			withReferences: true,
			query: "SELECT employees.id AS employees__id, employees.name AS employees__name, employees.department_id AS employees__department_id, " +
				"_ref0.id AS _ref0__id, _ref0.name AS _ref0__name, _ref0.location_id AS _ref0__location_id, " +
				"_ref1.id AS _ref1__id, _ref1.city AS _ref1__city FROM employees " +
				"LEFT JOIN departments AS _ref0 ON _ref0.id = employees.department_id " +
				"LEFT JOIN locations AS _ref1 ON _ref1.id = _ref0.location_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := employees.Select(tt.withReferences)
			require.NoError(t, err)
			query, args, err := sql.Render(sel, dialect.SQLite)
			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
			assert.Empty(t, args)
		})
	}
}

func TestJoinsWithoutPrimaryKey(t *testing.T) {
	d := schema.NewDynamic("departments")
	d.Column("id", schema.Int).BindTo("id")
	e := schema.NewDynamic("employees")
	e.Column("department_id", schema.Int).References(d, "department")
	require.NoError(t, e.Err())

	_, err := e.Select(true)
	require.ErrorContains(t, err, "no primary key")
	_, err = e.Select(false)
	require.NoError(t, err)
}
