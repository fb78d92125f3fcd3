package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartingPriceMinimumPositive(t *testing.T) {
	p := &Packages{
		Basic:    &Package{Price: 8000},
		Standard: &Package{Price: 5000},
		Premium:  &Package{Price: 20000},
	}
	assert.EqualValues(t, 5000, StartingPrice(p))
}

func TestStartingPriceIgnoresZeroAndNil(t *testing.T) {
	p := &Packages{
		Basic:   &Package{Price: 0},
		Premium: &Package{Price: 9900},
	}
	assert.EqualValues(t, 9900, StartingPrice(p))

	assert.EqualValues(t, 0, StartingPrice(&Packages{Basic: &Package{Price: 0}}))
	assert.EqualValues(t, 0, StartingPrice(nil))
}

func TestDeriveDuration(t *testing.T) {
	cases := []struct {
		unit    string
		time    int
		minutes int
		label   string
	}{
		{UnitMinutes, 45, 45, "45 minutos"},
		{UnitMinutes, 1, 1, "1 minuto"},
		{UnitHours, 2, 120, "2 horas"},
		{UnitHours, 1, 60, "1 hora"},
		{UnitDays, 3, 4320, "3 dias"},
		{UnitDays, 1, 1440, "1 dia"},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			p := &Packages{Basic: &Package{DeliveryTime: tc.time, DeliveryUnit: tc.unit}}
			minutes, label := DeriveDuration(p)
			assert.Equal(t, tc.minutes, minutes)
			assert.Equal(t, tc.label, label)
		})
	}
}

func TestDeriveDurationDefaultsToOneDay(t *testing.T) {
	minutes, label := DeriveDuration(nil)
	assert.Equal(t, 1440, minutes)
	assert.Equal(t, "1 dia", label)
}

func TestFinalizePackagesSinglePackageNullsUpperTiers(t *testing.T) {
	p := &Packages{
		Basic:    &Package{Price: 5000},
		Standard: &Package{Price: 10000},
		Premium:  &Package{Price: 15000},
	}

	out := FinalizePackages(p, true)
	require.NotNil(t, out)
	assert.Nil(t, out.Standard)
	assert.Nil(t, out.Premium)
	require.NotNil(t, out.Basic)
	assert.EqualValues(t, 5000, out.Basic.Price)

	// Multi-package keeps all tiers and does not alias the input.
	kept := FinalizePackages(p, false)
	require.NotNil(t, kept.Standard)
	kept.Standard = nil
	assert.NotNil(t, p.Standard)
}

func TestFindSubcategory(t *testing.T) {
	sub := FindSubcategory("healthcare", "dentist")
	require.NotNil(t, sub)
	require.NotNil(t, sub.RequiresBoard)
	assert.Equal(t, "CRO", sub.RequiresBoard.Name)

	assert.Nil(t, FindSubcategory("healthcare", "plumber"))
	assert.Nil(t, FindSubcategory("nope", "dentist"))
}
