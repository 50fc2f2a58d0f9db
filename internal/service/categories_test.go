package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	assert.Equal(t,
		[]string{"Electronics", "Phones", "Smartphones"},
		SplitPath("Electronics > Phones > Smartphones"))

	assert.Equal(t,
		[]string{"Electronics", "Phones"},
		SplitPath(" Electronics >> Phones > "))

	assert.Empty(t, SplitPath(""))
	assert.Empty(t, SplitPath(" > > "))
}

func TestRewritePathPrefix(t *testing.T) {
	// Category 5 moved from under 1.2 to under 9
	assert.Equal(t, "9.5", RewritePathPrefix("1.2.5", "1.2.5", "9.5"))
	assert.Equal(t, "9.5.7", RewritePathPrefix("1.2.5.7", "1.2.5", "9.5"))
	assert.Equal(t, "9.5.7.11", RewritePathPrefix("1.2.5.7.11", "1.2.5", "9.5"))

	// Sibling subtrees are untouched
	assert.Equal(t, "1.2.6", RewritePathPrefix("1.2.6", "1.2.5", "9.5"))
	assert.Equal(t, "1.2.50", RewritePathPrefix("1.2.50", "1.2.5", "9.5"))
}

func TestResolveOrCreateRejectsEmptyPath(t *testing.T) {
	cr := NewCategoryResolver(nil)

	_, err := cr.ResolveOrCreate(context.Background(), "  >  ")
	assert.Error(t, err)
}
