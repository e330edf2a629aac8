package serviceorder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

var validate = validator.New()

// EyeReading carries one eye's prescription values in diopters.
type EyeReading struct {
	SphereDiopters   float64 `json:"sphere_diopters" validate:"gte=-30,lte=30"`
	CylinderDiopters float64 `json:"cylinder_diopters" validate:"gte=-15,lte=15"`
	AxisDegrees      int     `json:"axis_degrees" validate:"gte=0,lte=180"`
}

// IntakePayload is what the prescription form reports back for one collection.
type IntakePayload struct {
	ClientID            uuid.UUID  `json:"client_id" validate:"required"`
	RightEye            EyeReading `json:"right_eye"`
	LeftEye             EyeReading `json:"left_eye"`
	PupillaryDistanceMM float64    `json:"pupillary_distance_mm" validate:"gt=0,lte=85"`
	Notes               string     `json:"notes,omitempty"`
}

// Validate checks the payload is internally consistent. A non-zero cylinder
// needs an axis, the optician cannot grind an astigmatism correction without
// its orientation.
func (p IntakePayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		fields := make([]string, 0, 4)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			sort.Strings(fields)
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("intake payload invalid: %s", strings.Join(fields, ", "))).
				WithDetails(map[string]any{"fields": fields})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "intake payload invalid")
	}
	if p.RightEye.CylinderDiopters != 0 && p.RightEye.AxisDegrees == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "right eye cylinder requires an axis")
	}
	if p.LeftEye.CylinderDiopters != 0 && p.LeftEye.AxisDegrees == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "left eye cylinder requires an axis")
	}
	return nil
}

// IntakeFields is the field list pushed to the intake form for any
// lens-bearing collection.
func IntakeFields() []string {
	return []string{
		"client_id",
		"right_eye.sphere_diopters",
		"right_eye.cylinder_diopters",
		"right_eye.axis_degrees",
		"left_eye.sphere_diopters",
		"left_eye.cylinder_diopters",
		"left_eye.axis_degrees",
		"pupillary_distance_mm",
	}
}
