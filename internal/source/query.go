package source

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/apache/arrow/go/v16/parquet/file"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geoparquet"
	"github.com/opengeos/open-buildings-go/internal/quadkey"
	"github.com/opengeos/open-buildings-go/internal/storage"
	"github.com/paulmach/orb"
	"gocloud.dev/blob"
)

const (
	quadkeyColumn = "quadkey"
	bboxColumn    = "bbox"
)

// FeatureWriter receives the buildings matched by a query.
type FeatureWriter interface {
	Write(feature *geo.Feature) error
}

type Client struct {
	source   Name
	settings *Settings
	bucket   *blob.Bucket
}

func NewClient(ctx context.Context, name Name) (*Client, error) {
	settings, err := LoadSettings(name)
	if err != nil {
		return nil, err
	}
	bucket, err := blob.OpenBucket(ctx, settings.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", settings.BucketURL, err)
	}
	return &Client{source: name, settings: settings, bucket: bucket}, nil
}

func (c *Client) Source() Name {
	return c.source
}

func (c *Client) Close() error {
	return c.bucket.Close()
}

// Query selects buildings from a source.
type Query struct {
	// AOI is the area of interest. Buildings with any vertex outside the
	// area are excluded.
	AOI orb.Geometry

	// CountryISO is an optional 2-letter hint that limits the partitions
	// scanned. A wrong hint yields zero results, not an error.
	CountryISO string

	// FlatColumnsOnly restricts overture reads to single-value columns for
	// output formats without nested type support.
	FlatColumnsOnly bool

	// Progress, when set, receives per-partition status messages.
	Progress func(format string, args ...any)
}

// Plan describes the partitions a query would scan.
type Plan struct {
	Source     Name     `json:"source"`
	Quadkey    string   `json:"quadkey"`
	CountryISO string   `json:"country_iso,omitempty"`
	Partitions []string `json:"partitions"`
}

func (q *Query) progress(format string, args ...any) {
	if q.Progress != nil {
		q.Progress(format, args...)
	}
}

// Plan computes the covering quadkey for the AOI and lists the partitions
// that could hold matching buildings.
func (c *Client) Plan(ctx context.Context, query *Query) (*Plan, error) {
	if query.AOI == nil {
		return nil, fmt.Errorf("a query requires an AOI geometry")
	}
	key := quadkey.FromGeometry(query.AOI)
	countryISO := strings.ToUpper(query.CountryISO)

	partitions, err := c.listPartitions(ctx, countryISO, key)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Source:     c.source,
		Quadkey:    key,
		CountryISO: countryISO,
		Partitions: partitions,
	}, nil
}

func (c *Client) listPartitions(ctx context.Context, countryISO string, key string) ([]string, error) {
	partitions := []string{}
	iterator := c.bucket.List(&blob.ListOptions{Prefix: c.settings.Prefix})
	for {
		object, err := iterator.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", c.settings.Prefix, err)
		}
		if !strings.HasSuffix(object.Key, ".parquet") {
			continue
		}
		if countryISO != "" {
			if iso, ok := hiveValue(object.Key, "country_iso"); ok && !strings.EqualFold(iso, countryISO) {
				continue
			}
		}
		if key != "" {
			if partitionKey, ok := hiveValue(object.Key, quadkeyColumn); ok && !quadkey.Overlaps(partitionKey, key) {
				continue
			}
		}
		partitions = append(partitions, object.Key)
	}
	sort.Strings(partitions)
	return partitions, nil
}

// hiveValue extracts the value of a hive partition segment like
// country_iso=SC from an object key.
func hiveValue(key string, column string) (string, bool) {
	for _, segment := range strings.Split(key, "/") {
		if value, ok := strings.CutPrefix(segment, column+"="); ok {
			return value, true
		}
	}
	return "", false
}

// Run streams every building within the query AOI to the writer and returns
// the number of features written.
func (c *Client) Run(ctx context.Context, query *Query, writer FeatureWriter) (int, error) {
	plan, err := c.Plan(ctx, query)
	if err != nil {
		return 0, err
	}

	if len(plan.Partitions) == 0 {
		if plan.CountryISO != "" {
			query.progress("no partitions matched country hint %q, check the ISO code", plan.CountryISO)
		}
		return 0, nil
	}

	count := 0
	for _, partition := range plan.Partitions {
		query.progress("scanning %s", partition)
		written, err := c.scanPartition(ctx, query, plan, partition, writer)
		if err != nil {
			return count, fmt.Errorf("failed to scan %s: %w", partition, err)
		}
		count += written
	}
	return count, nil
}

func (c *Client) scanPartition(ctx context.Context, query *Query, plan *Plan, partition string, writer FeatureWriter) (int, error) {
	reader, err := storage.NewBlobReaderFromBucket(ctx, c.bucket, partition)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	parquetReader, err := file.NewParquetReader(reader)
	if err != nil {
		return 0, err
	}

	config := &geoparquet.ReaderConfig{File: parquetReader, Context: ctx}
	parquetSchema := parquetReader.MetaData().Schema

	if plan.Quadkey != "" && parquetSchema.ColumnIndexByName(quadkeyColumn) >= 0 {
		config.RowGroups = geoparquet.RowGroupsMatchingQuadkey(parquetReader, quadkeyColumn, plan.Quadkey)
		if len(config.RowGroups) == 0 {
			return 0, parquetReader.Close()
		}
	}

	if parquetSchema.ColumnIndexByName(bboxColumn+".xmin") >= 0 {
		aoiBbox := geo.NewBboxFromBound(query.AOI.Bound())
		bboxGroups := geoparquet.RowGroupsIntersectingBbox(parquetReader, bboxColumn, aoiBbox)
		config.RowGroups = intersectRowGroups(config.RowGroups, bboxGroups)
		if len(config.RowGroups) == 0 {
			return 0, parquetReader.Close()
		}
	}

	if query.FlatColumnsOnly {
		config.Columns = geoparquet.ColumnIndices(FlatColumns, parquetSchema)
	}

	recordReader, err := geoparquet.NewRecordReader(config)
	if err != nil {
		return 0, err
	}
	defer recordReader.Close()

	count := 0
	for {
		record, err := recordReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		features, err := geoparquet.FeaturesFromRecord(record, recordReader.Metadata())
		if err != nil {
			return count, err
		}
		for _, feature := range features {
			if !matchesQuadkey(feature, plan.Quadkey) {
				continue
			}
			if !geo.Within(feature.Geometry, query.AOI) {
				continue
			}
			if err := writer.Write(feature); err != nil {
				return count, err
			}
			count += 1
		}
	}
	return count, nil
}

// intersectRowGroups combines two pruning results. A nil list means the
// earlier pruning kept every row group.
func intersectRowGroups(a []int, b []int) []int {
	if a == nil {
		return b
	}
	kept := []int{}
	for _, group := range a {
		if slices.Contains(b, group) {
			kept = append(kept, group)
		}
	}
	return kept
}

func matchesQuadkey(feature *geo.Feature, key string) bool {
	if key == "" {
		return true
	}
	value, ok := feature.Properties[quadkeyColumn]
	if !ok {
		return true
	}
	str, ok := value.(string)
	if !ok {
		return true
	}
	return strings.HasPrefix(str, key)
}
