package prayer

import (
	"github.com/mnadev/adhango/pkg/calc"

	"muadhin/internal/models"
)

// methodConfig maps a calculation method onto an adhango preset. Zero
// angles keep the preset's own value.
type methodConfig struct {
	preset    calc.CalculationMethod
	fajrAngle float64
	ishaAngle float64
	// maghribAngle places maghrib at a solar depression instead of sunset.
	maghribAngle float64
}

var methods = map[models.CalculationMethod]methodConfig{
	models.MethodMWL:      {preset: calc.MUSLIM_WORLD_LEAGUE},
	models.MethodISNA:     {preset: calc.NORTH_AMERICA},
	models.MethodEgyptian: {preset: calc.EGYPTIAN},
	models.MethodMakkah:   {preset: calc.UMM_AL_QURA},
	models.MethodKarachi:  {preset: calc.KARACHI},
	// Tehran has no preset.
	models.MethodTehran: {preset: calc.OTHER, fajrAngle: 17.7, ishaAngle: 14, maghribAngle: 4.5},
}
