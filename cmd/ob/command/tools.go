package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opengeos/open-buildings-go/internal/quadkey"
	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"
)

type ToolsCmd struct {
	Quadkey   QuadkeyCmd   `cmd:"" help:"Print the covering quadkey for a GeoJSON area of interest."`
	Wkt       WktCmd       `cmd:"" help:"Print a GeoJSON area of interest as WKT."`
	Quad2json Quad2jsonCmd `cmd:"" name:"quad2json" help:"Print the bounds of a quadkey as GeoJSON."`
}

type QuadkeyCmd struct {
	Geojson string `arg:"" optional:"" name:"geojson" help:"Path to a GeoJSON file.  If not provided, input is read from stdin." type:"existingfile"`
}

func (c *QuadkeyCmd) Run() error {
	aoi, err := aoiFromInput(c.Geojson)
	if err != nil {
		return err
	}
	key := quadkey.FromGeometry(aoi)
	if key == "" {
		return NewCommandError("no single quadkey contains the area of interest")
	}
	fmt.Println(key)
	return nil
}

type WktCmd struct {
	Geojson string `arg:"" optional:"" name:"geojson" help:"Path to a GeoJSON file.  If not provided, input is read from stdin." type:"existingfile"`
}

func (c *WktCmd) Run() error {
	aoi, err := aoiFromInput(c.Geojson)
	if err != nil {
		return err
	}
	fmt.Println(wkt.MarshalString(aoi))
	return nil
}

type Quad2jsonCmd struct {
	Quadkey string `arg:"" name:"quadkey" help:"A quadkey string, like 301001330310."`
}

func (c *Quad2jsonCmd) Run() error {
	bound, err := quadkey.Bound(c.Quadkey)
	if err != nil {
		return NewCommandError("%s", err)
	}
	feature := orbjson.NewFeature(bound.ToPolygon())
	feature.Properties["quadkey"] = c.Quadkey
	collection := orbjson.NewFeatureCollection()
	collection.Append(feature)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(collection)
}
