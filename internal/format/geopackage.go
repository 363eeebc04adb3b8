package format

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

const (
	gpkgTableName     = "buildings"
	gpkgApplicationId = 0x47504B47 // "GPKG"
	gpkgUserVersion   = 10300
)

// geoPackageWriter buffers features and writes a single-layer GeoPackage on
// Close. Property columns are inferred from the observed values.
type geoPackageWriter struct {
	path     string
	features []*geo.Feature
}

func newGeoPackageWriter(path string) *geoPackageWriter {
	return &geoPackageWriter{path: path}
}

func (w *geoPackageWriter) Write(feature *geo.Feature) error {
	w.features = append(w.features, feature)
	return nil
}

func (w *geoPackageWriter) Close() error {
	db, err := sql.Open("sqlite3", w.path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationId)); err != nil {
		return err
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion)); err != nil {
		return err
	}

	columns := w.propertyColumns()
	bounds, geometryType := w.geometrySummary()

	if err := w.createTables(db, columns, bounds, geometryType); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(columns)+1)
	placeholders := make([]string, 0, len(columns)+1)
	names = append(names, "geom")
	placeholders = append(placeholders, "?")
	for _, column := range columns {
		names = append(names, quoteIdentifier(column.name))
		placeholders = append(placeholders, "?")
	}

	statement, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		gpkgTableName, strings.Join(names, ", "), strings.Join(placeholders, ", "),
	))
	if err != nil {
		tx.Rollback()
		return err
	}

	for _, feature := range w.features {
		blob, blobErr := gpkgGeometryBlob(feature.Geometry)
		if blobErr != nil {
			statement.Close()
			tx.Rollback()
			return blobErr
		}
		values := make([]any, 0, len(columns)+1)
		values = append(values, blob)
		for _, column := range columns {
			values = append(values, feature.Properties[column.name])
		}
		if _, err := statement.Exec(values...); err != nil {
			statement.Close()
			tx.Rollback()
			return err
		}
	}

	statement.Close()
	return tx.Commit()
}

type gpkgColumn struct {
	name    string
	sqlType string
}

func (w *geoPackageWriter) propertyColumns() []gpkgColumn {
	types := map[string]string{}
	for _, feature := range w.features {
		for name, value := range feature.Properties {
			if _, ok := types[name]; ok && types[name] != "" {
				continue
			}
			types[name] = sqliteType(value)
		}
	}
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	columns := make([]gpkgColumn, len(names))
	for i, name := range names {
		sqlType := types[name]
		if sqlType == "" {
			sqlType = "TEXT"
		}
		columns[i] = gpkgColumn{name: name, sqlType: sqlType}
	}
	return columns
}

func sqliteType(value any) string {
	switch value.(type) {
	case nil:
		return ""
	case bool, int, int32, int64:
		return "INTEGER"
	case float32, float64:
		return "REAL"
	case []byte:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (w *geoPackageWriter) geometrySummary() (*orb.Bound, string) {
	var bounds *orb.Bound
	geometryType := ""
	for _, feature := range w.features {
		if feature.Geometry == nil {
			continue
		}
		b := feature.Geometry.Bound()
		if bounds == nil {
			bounds = &b
		} else {
			union := bounds.Union(b)
			bounds = &union
		}
		t := strings.ToUpper(feature.Geometry.GeoJSONType())
		if geometryType == "" {
			geometryType = t
		} else if geometryType != t {
			geometryType = "GEOMETRY"
		}
	}
	if geometryType == "" {
		geometryType = "GEOMETRY"
	}
	return bounds, geometryType
}

func (w *geoPackageWriter) createTables(db *sql.DB, columns []gpkgColumn, bounds *orb.Bound, geometryType string) error {
	statements := []string{
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES
			('Undefined cartesian SRS', -1, 'NONE', -1, 'undefined', NULL),
			('Undefined geographic SRS', 0, 'NONE', 0, 'undefined', NULL),
			('WGS 84 geodetic', 4326, 'EPSG', 4326,
				'GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]',
				NULL)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE,
			min_y DOUBLE,
			max_x DOUBLE,
			max_y DOUBLE,
			srs_id INTEGER
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
	}

	createColumns := []string{"fid INTEGER PRIMARY KEY AUTOINCREMENT", "geom BLOB"}
	for _, column := range columns {
		createColumns = append(createColumns, fmt.Sprintf("%s %s", quoteIdentifier(column.name), column.sqlType))
	}
	statements = append(statements, fmt.Sprintf(
		"CREATE TABLE %s (%s)", gpkgTableName, strings.Join(createColumns, ", "),
	))

	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("failed to initialize geopackage: %w", err)
		}
	}

	var minX, minY, maxX, maxY any
	if bounds != nil {
		minX, minY, maxX, maxY = bounds.Left(), bounds.Bottom(), bounds.Right(), bounds.Top()
	}
	if _, err := db.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
			VALUES (?, 'features', ?, ?, ?, ?, ?, 4326)`,
		gpkgTableName, gpkgTableName, minX, minY, maxX, maxY,
	); err != nil {
		return err
	}
	if _, err := db.Exec(
		"INSERT INTO gpkg_geometry_columns VALUES (?, 'geom', ?, 4326, 0, 0)",
		gpkgTableName, geometryType,
	); err != nil {
		return err
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// gpkgGeometryBlob encodes a geometry as a GeoPackage binary blob: the GP
// header with an envelope, followed by standard WKB.
func gpkgGeometryBlob(geometry orb.Geometry) ([]byte, error) {
	if geometry == nil {
		return nil, nil
	}
	data, err := wkb.Marshal(geometry)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 8+32)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0
	// little endian with a 4-value envelope
	header[3] = 0x03
	binary.LittleEndian.PutUint32(header[4:8], 4326)

	bound := geometry.Bound()
	binary.LittleEndian.PutUint64(header[8:16], math.Float64bits(bound.Min.X()))
	binary.LittleEndian.PutUint64(header[16:24], math.Float64bits(bound.Max.X()))
	binary.LittleEndian.PutUint64(header[24:32], math.Float64bits(bound.Min.Y()))
	binary.LittleEndian.PutUint64(header[32:40], math.Float64bits(bound.Max.Y()))

	return append(header, data...), nil
}
