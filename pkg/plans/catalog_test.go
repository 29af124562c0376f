package plans_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seatshare/pkg/plans"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()

		catalog, err := plans.Decode(strings.NewReader(`
plans:
  - id: family
    name: Family
    seats: 6
    trial_days: 14
  - id: solo
    name: Solo
    seats: 1
`))
		require.NoError(t, err)

		seats, err := catalog.Seats("family")
		require.NoError(t, err)
		assert.Equal(t, 6, seats)

		list := catalog.List()
		require.Len(t, list, 2)
		assert.Equal(t, "solo", list[0].ID)
		assert.Equal(t, 0, list[0].Shareable())
		assert.Equal(t, 5, list[1].Shareable())
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		_, err := plans.Decode(strings.NewReader("plans:\n  - id: x\n    seats: 2\n    price: 10\n"))
		require.ErrorIs(t, err, plans.ErrFailedToLoadPlans)
	})

	t.Run("invalid plans", func(t *testing.T) {
		t.Parallel()

		for name, doc := range map[string]string{
			"empty":      "plans: []\n",
			"no id":      "plans:\n  - seats: 2\n",
			"zero seats": "plans:\n  - id: x\n    seats: 0\n",
			"duplicate":  "plans:\n  - id: x\n    seats: 2\n  - id: x\n    seats: 3\n",
		} {
			_, err := plans.Decode(strings.NewReader(doc))
			assert.ErrorIs(t, err, plans.ErrInvalidPlanConfiguration, name)
		}
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: duo\n    seats: 2\n"), 0o600))

	catalog, err := plans.LoadFile(path)
	require.NoError(t, err)
	p, err := catalog.Get("duo")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Seats)

	_, err = plans.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, plans.ErrFailedToLoadPlans)
}

func TestCatalog_UnknownPlan(t *testing.T) {
	t.Parallel()

	catalog := plans.MustCatalog(plans.Plan{ID: "duo", Seats: 2})
	_, err := catalog.Seats("enterprise")
	require.ErrorIs(t, err, plans.ErrPlanNotFound)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	catalog := plans.Default()
	family, err := catalog.Get("family")
	require.NoError(t, err)
	assert.Equal(t, 6, family.Seats)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, family.TrialEndsAt(start))
	assert.Equal(t, start.AddDate(0, 0, 14), *family.TrialEndsAt(start))

	duo, err := catalog.Get("duo")
	require.NoError(t, err)
	assert.Nil(t, duo.TrialEndsAt(start))
}
