package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/mapbook/mapbook/internal/domain"
)

// DefaultCRS is used when the caller requests no specific reference system.
const DefaultCRS = "WGS-84"

const wktWGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",` +
	`SPHEROID["WGS_1984",6378137.0,298.257223563]],` +
	`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

const wktWebMercator = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",` +
	`GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",` +
	`SPHEROID["WGS_1984",6378137.0,298.257223563]],` +
	`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]],` +
	`PROJECTION["Mercator_Auxiliary_Sphere"],` +
	`PARAMETER["False_Easting",0.0],PARAMETER["False_Northing",0.0],` +
	`PARAMETER["Central_Meridian",0.0],PARAMETER["Standard_Parallel_1",0.0],` +
	`PARAMETER["Auxiliary_Sphere_Type",0.0],UNIT["Meter",1.0]]`

// webMercatorRadius is the sphere radius used by EPSG:3857.
const webMercatorRadius = 6378137.0

// maxMercatorLat bounds the projection; beyond it y diverges.
const maxMercatorLat = 85.05112878

// projection reprojects WGS-84 degrees into the target system's x/y.
type projection struct {
	name    string
	wkt     string
	forward func(lat, lon float64) (x, y float64)
}

// lookupCRS resolves a requested CRS name to a projection. Unknown names are
// an export failure, surfaced before any file is written.
func lookupCRS(name string) (projection, error) {
	switch normalizeCRS(name) {
	case "", "WGS-84", "WGS84", "EPSG:4326", "CRS84":
		return projection{
			name: "WGS-84",
			wkt:  wktWGS84,
			forward: func(lat, lon float64) (float64, float64) {
				return lon, lat
			},
		}, nil
	case "EPSG:3857", "WEB-MERCATOR", "WEBMERCATOR":
		return projection{
			name:    "EPSG:3857",
			wkt:     wktWebMercator,
			forward: webMercator,
		}, nil
	default:
		return projection{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCRS, name)
	}
}

func normalizeCRS(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}

// webMercator projects WGS-84 degrees to EPSG:3857 meters, clamping latitude
// to the projection's valid range.
func webMercator(lat, lon float64) (x, y float64) {
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	}
	if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}
	x = webMercatorRadius * lon * math.Pi / 180
	y = webMercatorRadius * math.Log(math.Tan((90+lat)*math.Pi/360))
	return x, y
}
