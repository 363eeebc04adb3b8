// Package source queries the remote building footprint archives. Each source
// is a hive partitioned collection of GeoParquet objects in a public bucket.
package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Name string

const (
	Google   Name = "google"
	Overture Name = "overture"
)

func Parse(name string) (Name, error) {
	switch Name(strings.ToLower(name)) {
	case Google:
		return Google, nil
	case Overture:
		return Overture, nil
	}
	return "", fmt.Errorf("unknown source %q, expected %q or %q", name, Google, Overture)
}

const (
	defaultBucketURL      = "s3://us-west-2.opendata.source.coop?region=us-west-2"
	defaultGooglePrefix   = "google-research-open-buildings/geoparquet-by-country/"
	defaultOverturePrefix = "cholmes/overture/geoparquet-country-quad-hive/"
)

// Environment variables that override the dataset locations. Useful for
// mirrors and for file:// fixtures in tests.
const (
	EnvBucketURL      = "OPEN_BUILDINGS_BUCKET_URL"
	EnvGooglePrefix   = "OPEN_BUILDINGS_GOOGLE_PREFIX"
	EnvOverturePrefix = "OPEN_BUILDINGS_OVERTURE_PREFIX"
)

// FlatColumns are the overture columns that fit flat, single-value output
// formats. Formats without nested type support select only these.
var FlatColumns = []string{
	"id",
	"level",
	"height",
	"numfloors",
	"class",
	"country_iso",
	"quadkey",
	"geometry",
}

type Settings struct {
	BucketURL string
	Prefix    string
}

// LoadSettings resolves the bucket and prefix for a source, applying any
// overrides from the environment. A .env file in the working directory is
// loaded first when present.
func LoadSettings(name Name) (*Settings, error) {
	_ = godotenv.Load()

	settings := &Settings{BucketURL: defaultBucketURL}
	switch name {
	case Google:
		settings.Prefix = defaultGooglePrefix
		if prefix := os.Getenv(EnvGooglePrefix); prefix != "" {
			settings.Prefix = prefix
		}
	case Overture:
		settings.Prefix = defaultOverturePrefix
		if prefix := os.Getenv(EnvOverturePrefix); prefix != "" {
			settings.Prefix = prefix
		}
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}

	if bucketURL := os.Getenv(EnvBucketURL); bucketURL != "" {
		settings.BucketURL = bucketURL
	}
	if settings.Prefix != "" && !strings.HasSuffix(settings.Prefix, "/") {
		settings.Prefix += "/"
	}
	return settings, nil
}
