package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCollections(t *testing.T) {
	d := Default()
	assert.Equal(t, []string{"users", "fabrics", "products", "carts", "orders"}, d.CollectionNames())

	assert.True(t, d.HasCollection("products"))
	assert.False(t, d.HasCollection("admin"))
	assert.False(t, d.HasCollection("Products"), "allow-list is case sensitive")
}

func TestFields(t *testing.T) {
	d := Default()

	fields := d.Fields("orders")
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"_id", "user_id", "orderItems", "total_amount", "status", "order_date"}, names)

	assert.Nil(t, d.Fields("unknown"))
}

func TestRenderCoversEveryCollection(t *testing.T) {
	rendered := Default().Render()

	for _, name := range Default().CollectionNames() {
		assert.Contains(t, rendered, "Collection Name: "+name)
	}
	assert.Contains(t, rendered, "price (Type: Number)")
	assert.Contains(t, rendered, "order_date (Type: Date)")
}
