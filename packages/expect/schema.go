package expect

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// BodyMatchesSchema expects the JSON body to validate against the given
// JSON Schema document. Schema compilation problems surface as verification
// errors, not assertion failures.
func BodyMatchesSchema(schemaJSON string) Expectation {
	return expectationFunc(func(r *wire.Result) error {
		schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
		documentLoader := gojsonschema.NewBytesLoader(r.Response.Body)

		result, err := gojsonschema.Validate(schemaLoader, documentLoader)
		if err != nil {
			return fmt.Errorf("schema validation: %w", err)
		}

		if !result.Valid() {
			var problems []string
			for _, desc := range result.Errors() {
				problems = append(problems, desc.String())
			}
			return &AssertionError{
				Subject:  "body",
				Expected: "body matching schema",
				Actual:   strings.Join(problems, "; "),
				Message:  "schema validation failed",
			}
		}
		return nil
	})
}
