package querylang

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourusername/fabriq-ai-query/models"
)

func TestEvaluateArgsEmpty(t *testing.T) {
	args, err := EvaluateArgs("")
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestEvaluateArgsScalars(t *testing.T) {
	args, err := EvaluateArgs(`{a: 1, b: -2.5, c: "text", d: 'single', e: true, f: null, g: 1e3}`)
	require.NoError(t, err)
	require.Len(t, args, 1)

	doc := args[0].(bson.M)
	assert.Equal(t, int64(1), doc["a"])
	assert.Equal(t, -2.5, doc["b"])
	assert.Equal(t, "text", doc["c"])
	assert.Equal(t, "single", doc["d"])
	assert.Equal(t, true, doc["e"])
	assert.Nil(t, doc["f"])
	assert.Equal(t, 1000.0, doc["g"])
}

func TestEvaluateArgsMultiple(t *testing.T) {
	args, err := EvaluateArgs(`{price: {$lt: 1500}}, {product_name: 1, _id: 0}`)
	require.NoError(t, err)
	require.Len(t, args, 2)

	assert.Equal(t, bson.M{"price": bson.M{"$lt": int64(1500)}}, args[0])
	assert.Equal(t, bson.M{"product_name": int64(1), "_id": int64(0)}, args[1])
}

func TestEvaluateArgsNestedArrays(t *testing.T) {
	args, err := EvaluateArgs(`[{$match: {status: {$in: ["paid", "shipped"]}}}, {$limit: 5}]`)
	require.NoError(t, err)
	require.Len(t, args, 1)

	pipeline := args[0].(bson.A)
	require.Len(t, pipeline, 2)
	match := pipeline[0].(bson.M)["$match"].(bson.M)
	assert.Equal(t, bson.A{"paid", "shipped"}, match["status"].(bson.M)["$in"])
}

func TestEvaluateArgsObjectID(t *testing.T) {
	args, err := EvaluateArgs(`{fabric_id: ObjectId("652f1a2b3c4d5e6f70818283")}`)
	require.NoError(t, err)

	id, ok := args[0].(bson.M)["fabric_id"].(primitive.ObjectID)
	require.True(t, ok)
	assert.Equal(t, "652f1a2b3c4d5e6f70818283", id.Hex())
}

func TestEvaluateArgsRejectsBadObjectID(t *testing.T) {
	_, err := EvaluateArgs(`{_id: ObjectId("nothex")}`)
	assert.ErrorIs(t, err, models.ErrArgumentSyntax)
}

func TestEvaluateArgsExtendedJSONDate(t *testing.T) {
	args, err := EvaluateArgs(`{order_date: {$gte: {$date: "2024-01-01T00:00:00Z"}}}`)
	require.NoError(t, err)

	gte := args[0].(bson.M)["order_date"].(bson.M)["$gte"]
	dt, ok := gte.(primitive.DateTime)
	require.True(t, ok, "a $date object must materialize as a BSON date")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), dt.Time().UTC())
}

func TestEvaluateArgsDateConstructors(t *testing.T) {
	for _, expr := range []string{
		`{d: ISODate("2024-06-15")}`,
		`{d: new Date("2024-06-15")}`,
	} {
		args, err := EvaluateArgs(expr)
		require.NoError(t, err, expr)
		_, ok := args[0].(bson.M)["d"].(primitive.DateTime)
		assert.True(t, ok, expr)
	}
}

func TestEvaluateArgsNumberWrappers(t *testing.T) {
	args, err := EvaluateArgs(`{n: NumberLong(42), m: NumberInt(7)}`)
	require.NoError(t, err)
	assert.Equal(t, int64(42), args[0].(bson.M)["n"])
	assert.Equal(t, int64(7), args[0].(bson.M)["m"])
}

func TestEvaluateArgsRejectsCode(t *testing.T) {
	// The evaluator understands data and nothing else; anything that smells
	// of executable code is a syntax error.
	for _, expr := range []string{
		`function() { return 1 }`,
		`{x: process.env}`,
		`{x: this}`,
		`(() => 1)()`,
		`{x: require("fs")}`,
	} {
		_, err := EvaluateArgs(expr)
		assert.ErrorIs(t, err, models.ErrArgumentSyntax, expr)
	}
}

func TestEvaluateArgsRejectsMalformedLiterals(t *testing.T) {
	for _, expr := range []string{
		`{a: }`,
		`{a 1}`,
		`[1, 2`,
		`{"unterminated: 1}`,
		`{a: 1} {b: 2}`,
	} {
		_, err := EvaluateArgs(expr)
		assert.ErrorIs(t, err, models.ErrArgumentSyntax, expr)
	}
}

func TestEvaluateArgsToleratesTrailingCommas(t *testing.T) {
	args, err := EvaluateArgs(`{a: [1, 2,], b: 3,}`)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"a": bson.A{int64(1), int64(2)}, "b": int64(3)}, args[0])
}

func TestEvaluateArgsQuotedAndOperatorKeys(t *testing.T) {
	args, err := EvaluateArgs(`{"fabric.color": {$regex: "red", $options: "i"}}`)
	require.NoError(t, err)
	clause := args[0].(bson.M)["fabric.color"].(bson.M)
	assert.Equal(t, "red", clause["$regex"])
	assert.Equal(t, "i", clause["$options"])
}
