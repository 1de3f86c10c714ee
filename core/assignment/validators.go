package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/crosales/comedor/core"
)

var (
	cicloTag  = "ciclo"
	cicloText = "invalid ciclo lectivo"

	// plausible academic-year window; the lower bound predates the oldest
	// records the school keeps
	cicloMin = int64(2000)
	cicloMax = int64(2100)
)

func init() {
	_ = core.Validate.RegisterValidation(cicloTag, cicloValidation)
	core.RegisterCustomTranslation(cicloTag, cicloText)
}

// cicloValidation only allows plausible academic-year integers.
func cicloValidation(fl validator.FieldLevel) bool {
	ciclo := fl.Field().Int()
	return cicloMin <= ciclo && ciclo <= cicloMax
}
