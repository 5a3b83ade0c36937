package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c := testCatalog()

	all := c.All()
	require.Len(t, all, 4)
	assert.Equal(t, "dec-2026", all[0].ID)

	all[0].Name = "changed"
	p, ok := c.Get("dec-2026")
	require.True(t, ok)
	assert.Equal(t, "December Retreat", p.Name)

	_, err := c.Bookable("dec-2026")
	assert.NoError(t, err)
	_, err = c.Bookable("jan-2027")
	assert.ErrorIs(t, err, ErrPackageUnavailable)
	_, err = c.Bookable("aug-2027")
	assert.ErrorIs(t, err, ErrPackageUnavailable)
	_, err = c.Bookable("nope")
	assert.ErrorIs(t, err, ErrUnknownPackage)
}
