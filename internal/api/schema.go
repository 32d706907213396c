// internal/api/schema.go
package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "medalert-client/internal/common/errors"
)

// prescriptionSchema guards the analysis payload before it is decoded. The
// analyzer is an LLM and its output shape is not guaranteed; a malformed
// payload must become an application error, not a zero-value prescription.
const prescriptionSchema = `{
	"type": "object",
	"required": ["Patient", "Medicines"],
	"properties": {
		"Patient": {
			"type": "object",
			"required": ["Name"],
			"properties": {
				"Name": {"type": "string", "minLength": 1},
				"Age": {"type": ["integer", "null"]}
			}
		},
		"Date": {"type": ["string", "null"]},
		"Medicines": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["Medicine"],
				"properties": {
					"Medicine": {"type": "string", "minLength": 1},
					"Type": {"type": "string"},
					"Dosage": {"type": "string"},
					"Timings": {
						"type": "array",
						"items": {"type": "string"}
					}
				}
			}
		}
	}
}`

var prescriptionSchemaLoader = gojsonschema.NewStringLoader(prescriptionSchema)

func validatePrescriptionPayload(data []byte) error {
	result, err := gojsonschema.Validate(prescriptionSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "analysis result could not be parsed")
	}
	if !result.Valid() {
		fields := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			fields = append(fields, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return apperrors.NewApplicationError(
			apperrors.ErrCodeInvalidPayload,
			"analysis result did not match the expected shape: "+strings.Join(fields, "; "),
		)
	}
	return nil
}
