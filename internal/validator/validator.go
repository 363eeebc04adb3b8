// Package validator checks that a file carries well-formed GeoParquet
// metadata. Validation is metadata-only, it does not scan geometry data.
package validator

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v16/parquet"
	"github.com/apache/arrow/go/v16/parquet/file"
	"github.com/apache/arrow/go/v16/parquet/schema"
	"github.com/opengeos/open-buildings-go/internal/geoparquet"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var metadataSchema string

type Check struct {
	Title   string `json:"title"`
	Run     bool   `json:"run"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

type Report struct {
	Checks []*Check `json:"checks"`
}

// Valid reports whether every check that ran passed.
func (r *Report) Valid() bool {
	for _, check := range r.Checks {
		if check.Run && !check.Passed {
			return false
		}
	}
	return true
}

func (c *Check) fail(format string, args ...any) {
	c.Run = true
	c.Passed = false
	c.Message = fmt.Sprintf(format, args...)
}

func (c *Check) pass() {
	c.Run = true
	c.Passed = true
}

// Validate reads a parquet file and reports on its GeoParquet metadata.
func Validate(input parquet.ReaderAtSeeker, name string) (*Report, error) {
	fileReader, err := file.NewParquetReader(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q as parquet: %w", name, err)
	}
	defer fileReader.Close()

	hasKey := &Check{Title: fmt.Sprintf("file must include a %q metadata key", geoparquet.MetadataKey)}
	parses := &Check{Title: "metadata must be a JSON object"}
	conforms := &Check{Title: "metadata must conform to the GeoParquet schema"}
	primaryExists := &Check{Title: "primary geometry column must exist in the file schema"}
	geometryBinary := &Check{Title: "geometry columns must be binary"}

	report := &Report{Checks: []*Check{hasKey, parses, conforms, primaryExists, geometryBinary}}

	value, keyErr := geoparquet.GetMetadataValue(fileReader.MetaData().KeyValueMetadata())
	if keyErr != nil {
		hasKey.fail("%s", keyErr)
		return report, nil
	}
	hasKey.pass()

	var document any
	if err := json.Unmarshal([]byte(value), &document); err != nil {
		parses.fail("trouble parsing metadata: %s", err)
		return report, nil
	}
	parses.pass()

	compiled, err := jsonschema.CompileString("geoparquet-metadata.json", metadataSchema)
	if err != nil {
		return nil, fmt.Errorf("trouble compiling the metadata schema: %w", err)
	}
	if err := compiled.Validate(document); err != nil {
		conforms.fail("%s", schemaMessage(err))
		return report, nil
	}
	conforms.pass()

	geoMetadata := &geoparquet.Metadata{}
	if err := json.Unmarshal([]byte(value), geoMetadata); err != nil {
		return nil, fmt.Errorf("trouble parsing metadata: %w", err)
	}

	root := fileReader.MetaData().Schema.Root()
	if root.FieldIndexByName(geoMetadata.PrimaryColumn) < 0 {
		primaryExists.fail("missing column %q", geoMetadata.PrimaryColumn)
		return report, nil
	}
	primaryExists.pass()

	for name := range geoMetadata.Columns {
		index := root.FieldIndexByName(name)
		if index < 0 {
			geometryBinary.fail("missing geometry column %q", name)
			return report, nil
		}
		leaf, ok := root.Field(index).(*schema.PrimitiveNode)
		if !ok || leaf.PhysicalType() != parquet.Types.ByteArray {
			geometryBinary.fail("expected column %q to be binary", name)
			return report, nil
		}
	}
	geometryBinary.pass()

	return report, nil
}

func schemaMessage(err error) string {
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	messages := []string{}
	for _, cause := range validationErr.Causes {
		location := strings.TrimPrefix(cause.InstanceLocation, "/")
		if location == "" {
			messages = append(messages, cause.Message)
			continue
		}
		messages = append(messages, fmt.Sprintf("%s: %s", strings.ReplaceAll(location, "/", "."), cause.Message))
	}
	if len(messages) == 0 {
		return validationErr.Message
	}
	return strings.Join(messages, "; ")
}
