package geoparquet

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/apache/arrow/go/v16/parquet/file"
	"github.com/apache/arrow/go/v16/parquet/metadata"
	"github.com/apache/arrow/go/v16/parquet/schema"
	"github.com/opengeos/open-buildings-go/internal/geo"
)

// ColumnIndices maps leaf column names to their indices in the parquet
// schema, the index space ReaderConfig.Columns uses. Unknown names are
// ignored so callers can pass a superset of the columns a given partition
// actually has.
func ColumnIndices(names []string, parquetSchema *schema.Schema) []int {
	indices := []int{}
	for _, name := range names {
		idx := parquetSchema.ColumnIndexByName(name)
		if idx >= 0 && !slices.Contains(indices, idx) {
			indices = append(indices, idx)
		}
	}
	slices.Sort(indices)
	return indices
}

// RowGroupsIntersectingBbox returns the row groups whose bbox column
// statistics intersect the input bbox. When the file has no usable bbox
// column statistics, all row groups are returned.
func RowGroupsIntersectingBbox(fileReader *file.Reader, bboxColumn string, bbox *geo.Bbox) []int {
	fileMetadata := fileReader.MetaData()
	numRowGroups := fileReader.NumRowGroups()
	rowGroups := make([]int, 0, numRowGroups)
	for i := 0; i < numRowGroups; i += 1 {
		intersects, err := rowGroupIntersects(fileMetadata, bboxColumn, i, bbox)
		if err != nil {
			// no stats for this group, keep it
			rowGroups = append(rowGroups, i)
			continue
		}
		if intersects {
			rowGroups = append(rowGroups, i)
		}
	}
	return rowGroups
}

func rowGroupIntersects(fileMetadata *metadata.FileMetaData, bboxColumn string, rowGroup int, bbox *geo.Bbox) (bool, error) {
	xmin, _, err := columnMinMaxFloat(fileMetadata, rowGroup, bboxColumn+".xmin")
	if err != nil {
		return false, err
	}
	ymin, _, err := columnMinMaxFloat(fileMetadata, rowGroup, bboxColumn+".ymin")
	if err != nil {
		return false, err
	}
	_, xmax, err := columnMinMaxFloat(fileMetadata, rowGroup, bboxColumn+".xmax")
	if err != nil {
		return false, err
	}
	_, ymax, err := columnMinMaxFloat(fileMetadata, rowGroup, bboxColumn+".ymax")
	if err != nil {
		return false, err
	}

	rowGroupBbox := &geo.Bbox{Xmin: xmin, Ymin: ymin, Xmax: xmax, Ymax: ymax}
	return rowGroupBbox.Intersects(bbox), nil
}

func columnMinMaxFloat(fileMetadata *metadata.FileMetaData, rowGroup int, columnPath string) (min float64, max float64, err error) {
	encodedMin, encodedMax, err := columnMinMaxRaw(fileMetadata, rowGroup, columnPath)
	if err != nil {
		return 0, 0, err
	}
	if len(encodedMin) != 8 || len(encodedMax) != 8 {
		return 0, 0, fmt.Errorf("unexpected statistics encoding for %s", columnPath)
	}
	min = math.Float64frombits(binary.LittleEndian.Uint64(encodedMin))
	max = math.Float64frombits(binary.LittleEndian.Uint64(encodedMax))
	return min, max, nil
}

func columnMinMaxRaw(fileMetadata *metadata.FileMetaData, rowGroup int, columnPath string) ([]byte, []byte, error) {
	rowGroupMetadata := fileMetadata.RowGroup(rowGroup)
	if rowGroupMetadata == nil {
		return nil, nil, fmt.Errorf("missing metadata for row group %d", rowGroup)
	}

	columnIdx := rowGroupMetadata.Schema.ColumnIndexByName(columnPath)
	if columnIdx == -1 {
		return nil, nil, fmt.Errorf("column %s not found", columnPath)
	}

	columnChunk, err := rowGroupMetadata.ColumnChunk(columnIdx)
	if err != nil {
		return nil, nil, fmt.Errorf("trouble getting column chunk metadata for %s: %w", columnPath, err)
	}
	stats, err := columnChunk.Statistics()
	if err != nil {
		return nil, nil, fmt.Errorf("trouble getting statistics for %s: %w", columnPath, err)
	}
	if stats == nil || !stats.HasMinMax() {
		return nil, nil, fmt.Errorf("no min/max statistics for %s", columnPath)
	}
	return stats.EncodeMin(), stats.EncodeMax(), nil
}

// RowGroupsMatchingQuadkey returns the row groups whose quadkey column
// statistics could contain keys under the given quadkey prefix. Row groups
// without usable statistics are kept.
func RowGroupsMatchingQuadkey(fileReader *file.Reader, quadkeyColumn string, key string) []int {
	fileMetadata := fileReader.MetaData()
	numRowGroups := fileReader.NumRowGroups()
	rowGroups := make([]int, 0, numRowGroups)
	for i := 0; i < numRowGroups; i += 1 {
		encodedMin, encodedMax, err := columnMinMaxRaw(fileMetadata, i, quadkeyColumn)
		if err != nil {
			rowGroups = append(rowGroups, i)
			continue
		}
		if quadkeyRangeMatches(string(encodedMin), string(encodedMax), key) {
			rowGroups = append(rowGroups, i)
		}
	}
	return rowGroups
}

// A row group with keys in [min, max] can hold keys under the prefix exactly
// when the ranges [min, max] and [prefix+"0"*, prefix+"3"*] overlap.
func quadkeyRangeMatches(min string, max string, prefix string) bool {
	if prefix == "" {
		return true
	}
	width := len(min)
	if len(max) > width {
		width = len(max)
	}
	if width < len(prefix) {
		width = len(prefix)
	}
	lower := prefix + strings.Repeat("0", width-len(prefix))
	upper := prefix + strings.Repeat("3", width-len(prefix))
	return min <= upper && max >= lower
}
