package storage_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/opengeos/open-buildings-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFile(t *testing.T, data []byte) string {
	f, err := os.CreateTemp("", "file.txt")
	require.NoError(t, err)

	_, err = f.Write(data)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	return f.Name()
}

func removeFile(t *testing.T, name string) {
	require.NoError(t, os.Remove(name))
}

func TestBlobReaderReadAll(t *testing.T) {
	content := randBytes(t, 1024)
	name := createFile(t, content)
	defer removeFile(t, name)

	reader, err := storage.NewBlobReader(context.Background(), "file://"+name)
	require.NoError(t, err)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)

	assert.Len(t, data, len(content))
	require.NoError(t, reader.Close())
	// closing twice is allowed
	require.NoError(t, reader.Close())
}

func TestBlobReaderReadAt(t *testing.T) {
	content := randBytes(t, 1000)
	name := createFile(t, content)
	defer removeFile(t, name)

	blobReader, err := storage.NewBlobReader(context.Background(), "file://"+name)
	require.NoError(t, err)
	defer blobReader.Close()

	byteReader := bytes.NewReader(content)

	cases := []struct {
		name   string
		offset int
		size   int
		err    string
	}{
		{
			name:   "first read",
			offset: 700,
			size:   50,
		},
		{
			name:   "second read",
			offset: 10,
			size:   10,
		},
		{
			name:   "offset after end",
			offset: len(content) + 10,
			size:   10,
			err:    io.EOF.Error(),
		},
		{
			name:   "offset before start",
			offset: -1,
			size:   10,
			err:    "attempt to seek to a negative offset: -1",
		},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("%s (case %d)", c.name, i), func(t *testing.T) {
			data := make([]byte, c.size)
			read, err := blobReader.ReadAt(data, int64(c.offset))
			if c.err == "" {
				require.NoError(t, err)
			}
			if err != nil {
				assert.ErrorContains(t, err, c.err)
			}
			expected := make([]byte, c.size)
			expectedRead, _ := byteReader.ReadAt(expected, int64(c.offset))
			require.Equal(t, expectedRead, read)
			assert.Equal(t, expected[:read], data[:read])
		})
	}
}

func TestBlobReaderSeek(t *testing.T) {
	content := randBytes(t, 1000)
	name := createFile(t, content)
	defer removeFile(t, name)

	blobReader, err := storage.NewBlobReader(context.Background(), "file://"+name)
	require.NoError(t, err)
	defer blobReader.Close()

	offset, err := blobReader.Seek(700, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(700), offset)

	data := make([]byte, 10)
	read, err := blobReader.Read(data)
	require.NoError(t, err)
	assert.Equal(t, 10, read)
	assert.Equal(t, content[700:710], data)

	offset, err = blobReader.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(990), offset)

	_, err = blobReader.Seek(-1, io.SeekStart)
	assert.ErrorContains(t, err, "attempt to seek to a negative offset: -1")
}
