package schema

import (
	"fmt"
	"strings"
)

// Table names of the ecommerce store.
const (
	TableCategories = "categories"
	TableCustomers  = "customers"
	TableProducts   = "products"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
)

// Order statuses accepted by the orders table.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// LoadOrder is the dependency order in which tables must be populated so that
// foreign key checks never fail because of ordering.
var LoadOrder = []string{TableCategories, TableCustomers, TableProducts, TableOrders, TableOrderItems}

// Ecommerce returns the declared schema of the ecommerce store, tables in LoadOrder.
func Ecommerce() *Schema {
	return &Schema{Tables: []Table{
		{
			Name:       TableCategories,
			PrimaryKey: []string{"id"},
			Columns: []Column{
				{Name: "id", Kind: KindInteger},
				{Name: "name", Kind: KindVarchar, Length: 100, IsUnique: true},
				{Name: "description", Kind: KindText, Nullable: true},
			},
		},
		{
			Name:       TableCustomers,
			PrimaryKey: []string{"id"},
			Columns: []Column{
				{Name: "id", Kind: KindInteger},
				{Name: "name", Kind: KindVarchar, Length: 200},
				{Name: "email", Kind: KindVarchar, Length: 255, IsUnique: true},
				{Name: "phone", Kind: KindVarchar, Length: 50, Nullable: true},
				{Name: "address", Kind: KindText, Nullable: true},
				{Name: "registration_date", Kind: KindDate},
			},
			Indexes: []Index{
				{Name: "idx_customers_email", Columns: []string{"email"}},
			},
		},
		{
			Name:       TableProducts,
			PrimaryKey: []string{"id"},
			Columns: []Column{
				{Name: "id", Kind: KindInteger},
				{Name: "name", Kind: KindVarchar, Length: 200},
				{Name: "category_id", Kind: KindInteger},
				{Name: "price", Kind: KindDecimal, CheckConstraint: check("price >= 0")},
				{Name: "stock_quantity", Kind: KindInteger, CheckConstraint: check("stock_quantity >= 0")},
				{Name: "description", Kind: KindText, Nullable: true},
			},
			Relations: []Relation{
				{SourceColumn: "category_id", TargetTable: TableCategories, TargetColumn: "id", Cardinality: "N:1"},
			},
			Indexes: []Index{
				{Name: "idx_products_category", Columns: []string{"category_id"}},
			},
		},
		{
			Name:       TableOrders,
			PrimaryKey: []string{"id"},
			Columns: []Column{
				{Name: "id", Kind: KindInteger},
				{Name: "customer_id", Kind: KindInteger},
				{Name: "order_date", Kind: KindDate},
				{Name: "total_amount", Kind: KindDecimal, CheckConstraint: check("total_amount >= 0")},
				{
					Name:            "status",
					Kind:            KindVarchar,
					Length:          50,
					EnumValues:      OrderStatuses,
					CheckConstraint: check("status IN (" + quoteList(OrderStatuses) + ")"),
				},
			},
			Relations: []Relation{
				{SourceColumn: "customer_id", TargetTable: TableCustomers, TargetColumn: "id", Cardinality: "N:1"},
			},
			Indexes: []Index{
				{Name: "idx_orders_customer", Columns: []string{"customer_id"}},
				{Name: "idx_orders_date", Columns: []string{"order_date"}},
			},
		},
		{
			Name:       TableOrderItems,
			PrimaryKey: []string{"id"},
			Columns: []Column{
				{Name: "id", Kind: KindInteger},
				{Name: "order_id", Kind: KindInteger},
				{Name: "product_id", Kind: KindInteger},
				{Name: "quantity", Kind: KindInteger, CheckConstraint: check("quantity > 0")},
				{Name: "unit_price", Kind: KindDecimal, CheckConstraint: check("unit_price >= 0")},
			},
			Relations: []Relation{
				{SourceColumn: "order_id", TargetTable: TableOrders, TargetColumn: "id", Cardinality: "N:1"},
				{SourceColumn: "product_id", TargetTable: TableProducts, TargetColumn: "id", Cardinality: "N:1"},
			},
			Indexes: []Index{
				{Name: "idx_order_items_order", Columns: []string{"order_id"}},
				{Name: "idx_order_items_product", Columns: []string{"product_id"}},
			},
		},
	}}
}

// ValidStatus reports whether s is one of OrderStatuses.
func ValidStatus(s string) bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names of t in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// UnindexedForeignKeys returns "table.column" for every relation whose source
// column is not the leading column of an index.
func (s *Schema) UnindexedForeignKeys() []string {
	var missing []string
	for _, table := range s.Tables {
		for _, rel := range table.Relations {
			if !table.IsIndexed(rel.SourceColumn) {
				missing = append(missing, fmt.Sprintf("%s.%s", table.Name, rel.SourceColumn))
			}
		}
	}
	return missing
}

func check(expr string) *string {
	return &expr
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
