package geoparquet

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/memory"
	"github.com/apache/arrow/go/v16/parquet"
	"github.com/apache/arrow/go/v16/parquet/file"
	"github.com/apache/arrow/go/v16/parquet/pqarrow"
	"github.com/apache/arrow/go/v16/parquet/schema"
)

const (
	defaultReadBatchSize = 1024
)

type ReaderConfig struct {
	BatchSize int
	Reader    parquet.ReaderAtSeeker
	File      *file.Reader
	Context   context.Context

	// Columns restricts reading to the given column indices. It must include
	// the primary geometry column. Nil reads all columns.
	Columns []int

	// RowGroups restricts reading to the given row group indices. Nil reads
	// all row groups.
	RowGroups []int
}

type RecordReader struct {
	fileReader   *file.Reader
	metadata     *Metadata
	recordReader pqarrow.RecordReader
}

func NewParquetFileReader(config *ReaderConfig) (*file.Reader, error) {
	fileReader := config.File
	if fileReader == nil {
		if config.Reader == nil {
			return nil, errors.New("config must include a File or Reader value")
		}
		fr, frErr := file.NewParquetReader(config.Reader)
		if frErr != nil {
			return nil, frErr
		}
		fileReader = fr
	}
	return fileReader, nil
}

func NewArrowFileReader(config *ReaderConfig, parquetReader *file.Reader) (*pqarrow.FileReader, error) {
	batchSize := config.BatchSize
	if batchSize == 0 {
		batchSize = defaultReadBatchSize
	}

	return pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}, memory.DefaultAllocator)
}

func NewRecordReader(config *ReaderConfig) (*RecordReader, error) {
	parquetFileReader, err := NewParquetFileReader(config)
	if err != nil {
		return nil, err
	}

	arrowFileReader, err := NewArrowFileReader(config, parquetFileReader)
	if err != nil {
		return nil, err
	}

	geoMetadata, err := GetMetadataFromFileReader(parquetFileReader)
	if err != nil {
		return nil, err
	}

	ctx := config.Context
	if ctx == nil {
		ctx = context.Background()
	}

	columns := config.Columns
	if len(columns) == 0 {
		columns = nil
	}
	if columns != nil {
		primaryIdx := parquetFileReader.MetaData().Schema.ColumnIndexByName(geoMetadata.PrimaryColumn)
		if !slices.Contains(columns, primaryIdx) {
			return nil, fmt.Errorf("columns must include primary geometry column %q (index %d)", geoMetadata.PrimaryColumn, primaryIdx)
		}
	}

	rowGroups := config.RowGroups
	if rowGroups != nil && len(rowGroups) == 0 {
		rowGroups = nil
	}

	recordReader, recordErr := arrowFileReader.GetRecordReader(ctx, columns, rowGroups)
	if recordErr != nil {
		return nil, recordErr
	}

	reader := &RecordReader{
		fileReader:   arrowFileReader.ParquetReader(),
		metadata:     geoMetadata,
		recordReader: recordReader,
	}
	return reader, nil
}

func (r *RecordReader) Read() (arrow.Record, error) {
	return r.recordReader.Read()
}

func (r *RecordReader) Metadata() *Metadata {
	return r.metadata
}

func (r *RecordReader) Schema() *schema.Schema {
	return r.fileReader.MetaData().Schema
}

func (r *RecordReader) ArrowSchema() *arrow.Schema {
	return r.recordReader.Schema()
}

func (r *RecordReader) NumRows() int64 {
	return r.fileReader.NumRows()
}

func (r *RecordReader) Close() error {
	r.recordReader.Release()
	return r.fileReader.Close()
}
