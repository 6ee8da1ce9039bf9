// Package schema is the single source of truth for the storefront's document
// schema. The same descriptor renders the planner's prompt text and drives the
// validator's collection allow-list, so the two can never drift apart.
package schema

import (
	"fmt"
	"strings"
)

// FieldType is the semantic type advertised to the planner. These mirror the
// store's actual types; drift between the two is a correctness bug.
type FieldType string

const (
	TypeObjectID FieldType = "ObjectId"
	TypeString   FieldType = "String"
	TypeNumber   FieldType = "Number"
	TypeDate     FieldType = "Date"
	TypeObject   FieldType = "Object"
	TypeArray    FieldType = "Array of Objects"
)

// Field describes one field of a collection.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// Collection describes one queryable collection.
type Collection struct {
	Name        string
	Description string
	Fields      []Field
}

// Descriptor is a versioned, ordered set of collections.
type Descriptor struct {
	Version     string
	Collections []Collection
}

// Default returns the descriptor for the fabric storefront database.
func Default() *Descriptor {
	return &Descriptor{
		Version: "1",
		Collections: []Collection{
			{
				Name:        "users",
				Description: "Stores information about registered users.",
				Fields: []Field{
					{Name: "_id", Type: TypeObjectID},
					{Name: "fullname", Type: TypeObject},
					{Name: "username", Type: TypeString},
					{Name: "email", Type: TypeString},
				},
			},
			{
				Name:        "fabrics",
				Description: "Stores information about the different types of fabric available.",
				Fields: []Field{
					{Name: "_id", Type: TypeObjectID},
					{Name: "fabric_name", Type: TypeString},
					{Name: "material", Type: TypeString},
					{Name: "color", Type: TypeString},
				},
			},
			{
				Name:        "products",
				Description: "Stores information about individual products available for sale.",
				Fields: []Field{
					{Name: "_id", Type: TypeObjectID},
					{Name: "product_name", Type: TypeString},
					{Name: "description", Type: TypeString},
					{Name: "price", Type: TypeNumber},
					{Name: "stock_quantity", Type: TypeNumber},
					{Name: "fabric_id", Type: TypeObjectID},
				},
			},
			{
				Name:        "carts",
				Description: "Stores the shopping cart for each user.",
				Fields: []Field{
					{Name: "_id", Type: TypeObjectID},
					{Name: "user_id", Type: TypeObjectID},
					{Name: "items", Type: TypeArray},
				},
			},
			{
				Name:        "orders",
				Description: "Stores completed orders for users.",
				Fields: []Field{
					{Name: "_id", Type: TypeObjectID},
					{Name: "user_id", Type: TypeObjectID},
					{Name: "orderItems", Type: TypeArray},
					{Name: "total_amount", Type: TypeNumber},
					{Name: "status", Type: TypeString},
					{Name: "order_date", Type: TypeDate},
				},
			},
		},
	}
}

// HasCollection reports whether name is a queryable collection.
func (d *Descriptor) HasCollection(name string) bool {
	for _, c := range d.Collections {
		if c.Name == name {
			return true
		}
	}
	return false
}

// CollectionNames returns the allow-list in declaration order.
func (d *Descriptor) CollectionNames() []string {
	names := make([]string, 0, len(d.Collections))
	for _, c := range d.Collections {
		names = append(names, c.Name)
	}
	return names
}

// Fields returns the field list for a collection, or nil if unknown.
func (d *Descriptor) Fields(collection string) []Field {
	for _, c := range d.Collections {
		if c.Name == collection {
			return c.Fields
		}
	}
	return nil
}

// Render produces the human-readable schema block embedded in the planner
// prompt.
func (d *Descriptor) Render() string {
	var b strings.Builder
	b.WriteString("This database is for an e-commerce application selling fabric-based products.\n")
	b.WriteString("MongoDB collection names are the plural, lowercase version of the model name (e.g., User model -> 'users' collection).\n")
	for _, c := range d.Collections {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "Collection Name: %s\n", c.Name)
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
		parts := make([]string, 0, len(c.Fields))
		for _, f := range c.Fields {
			parts = append(parts, fmt.Sprintf("%s (Type: %s)", f.Name, f.Type))
		}
		fmt.Fprintf(&b, "Fields: - %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}
