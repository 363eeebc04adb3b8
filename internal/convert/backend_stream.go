package convert

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/opengeos/open-buildings-go/internal/format"
)

func convertStream(ctx context.Context, input string, writer format.FeatureWriter, options *Options) error {
	file, err := os.Open(input)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return err
	}
	columns, err := mapColumns(header)
	if err != nil {
		return err
	}

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		feature, err := columns.rowToFeature(record)
		if err != nil {
			return err
		}
		for _, f := range expand(feature, options.SkipSplitMultis) {
			if err := writer.Write(f); err != nil {
				return err
			}
		}
		row += 1
		if row%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
