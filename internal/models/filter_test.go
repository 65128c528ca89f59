package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterIsOrphan(t *testing.T) {
	filter := &Filter{ID: 42, ProviderID: 7}

	assert.True(t, filter.IsOrphan(nil))
	assert.True(t, filter.IsOrphan([]ProviderFilter{
		{ProviderID: 7, FilterID: 42},
	}))
	assert.False(t, filter.IsOrphan([]ProviderFilter{
		{ProviderID: 7, FilterID: 42},
		{ProviderID: 9, FilterID: 42},
	}))
	// an inactive external row still counts as a subscriber
	assert.False(t, filter.IsOrphan([]ProviderFilter{
		{ProviderID: 9, FilterID: 42, Active: false},
	}))
}

func TestVisibilityDirName(t *testing.T) {
	assert.Equal(t, "none", VisibilityNone.DirName())
	assert.Equal(t, "private", VisibilityPrivate.DirName())
	assert.Equal(t, "public", VisibilityPublic.DirName())
	assert.Equal(t, "thirdparty", VisibilityThirdParty.DirName())
}
