package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySmalltalk(t *testing.T) {
	c := New()

	tests := []string{
		"hi",
		"Hello there",
		"hey, how are you?",
		"thanks a lot!",
		"Thank you",
		"who are you?",
		"good morning",
		"bye",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			result := c.Classify(input)
			assert.True(t, result.IsSmalltalk, "expected smalltalk for %q", input)
			assert.False(t, result.IsDestructive)
		})
	}
}

func TestClassifyDestructive(t *testing.T) {
	c := New()

	tests := []string{
		"drop database",
		"please DROP the database now",
		"delete all users",
		"remove all orders",
		"truncate everything",
		"reset database",
		"insert a new product for me",
		"update the price of every product to 0",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			result := c.Classify(input)
			assert.True(t, result.IsDestructive, "expected destructive for %q", input)
			assert.False(t, result.IsSmalltalk)
		})
	}
}

func TestSmalltalkTakesPrecedenceOverIncidentalVerbs(t *testing.T) {
	c := New()

	// "thanks" must never produce a false destructive match.
	result := c.Classify("thanks")
	assert.True(t, result.IsSmalltalk)
	assert.False(t, result.IsDestructive)
}

func TestExplicitDestructivePhraseWinsOverGreeting(t *testing.T) {
	c := New()

	result := c.Classify("hi, drop database please")
	assert.False(t, result.IsSmalltalk)
	assert.True(t, result.IsDestructive)
}

func TestScopedPersonalPhrasesAreNotFlagged(t *testing.T) {
	c := New()

	// "delete my ..." is a CRUD-layer request, not an attack; it falls
	// through to the planner which refuses it with the FORBIDDEN sentinel.
	result := c.Classify("delete my cart")
	assert.False(t, result.IsDestructive)
	assert.False(t, result.IsSmalltalk)
}

func TestNeutralQuestionsPassThrough(t *testing.T) {
	c := New()

	tests := []string{
		"how many products are in stock?",
		"show me cotton fabrics under 1500",
		"what is the total revenue this month?",
	}
	for _, input := range tests {
		result := c.Classify(input)
		assert.False(t, result.IsSmalltalk, input)
		assert.False(t, result.IsDestructive, input)
	}
}

func TestEmptyInput(t *testing.T) {
	c := New()

	result := c.Classify("   ")
	assert.False(t, result.IsSmalltalk)
	assert.False(t, result.IsDestructive)
}
