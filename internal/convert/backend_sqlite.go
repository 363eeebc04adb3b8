package convert

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/opengeos/open-buildings-go/internal/format"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/paulmach/orb/encoding/wkt"
)

// convertSQLite stages the CSV rows in an in-memory table and exports from
// there, so the conversion cost includes a round trip through a database.
func convertSQLite(ctx context.Context, input string, writer format.FeatureWriter, options *Options) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := stageRows(ctx, db, input); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM buildings",
		colAreaInMeters, colConfidence, colGeometry, colFullPlusCode,
	))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var area, confidence sql.NullFloat64
		var geometryWKT string
		var plusCode sql.NullString
		if err := rows.Scan(&area, &confidence, &geometryWKT, &plusCode); err != nil {
			return err
		}
		geometry, wktErr := wkt.Unmarshal(geometryWKT)
		if wktErr != nil {
			return fmt.Errorf("invalid geometry %q: %w", geometryWKT, wktErr)
		}
		properties := map[string]any{}
		if area.Valid {
			properties[colAreaInMeters] = area.Float64
		}
		if confidence.Valid {
			properties[colConfidence] = confidence.Float64
		}
		if plusCode.Valid {
			properties[colFullPlusCode] = plusCode.String
		}
		feature := &geo.Feature{Geometry: geometry, Properties: properties}
		for _, f := range expand(feature, options.SkipSplitMultis) {
			if err := writer.Write(f); err != nil {
				return err
			}
		}
	}
	return rows.Err()
}

func stageRows(ctx context.Context, db *sql.DB, input string) error {
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

	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE buildings (%s REAL, %s REAL, %s TEXT, %s TEXT)",
		colAreaInMeters, colConfidence, colGeometry, colFullPlusCode,
	)); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	statement, err := tx.Prepare("INSERT INTO buildings VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer statement.Close()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tx.Rollback()
			return err
		}
		var area, confidence, plusCode any
		if columns.areaInMeters >= 0 {
			area = strings.TrimSpace(record[columns.areaInMeters])
		}
		if columns.confidence >= 0 {
			confidence = strings.TrimSpace(record[columns.confidence])
		}
		if columns.fullPlusCode >= 0 {
			plusCode = record[columns.fullPlusCode]
		}
		if _, err := statement.Exec(area, confidence, record[columns.geometry], plusCode); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
