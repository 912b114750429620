package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/mapbook/mapbook/internal/domain"
)

// dbf string columns for the event attributes. DBF limits fields to 254 bytes.
var shapeFields = []shp.Field{
	shp.StringField("TITLE", 120),
	shp.StringField("TYPE", 60),
	shp.StringField("CONTENT", 254),
	shp.StringField("KEYWORDS", 254),
	shp.StringField("ADDRESS", 254),
}

// Shapefile packs the events into a zip archive of point shapefile parts
// (.shp .shx .dbf .prj) reprojected to the requested CRS (WGS-84 when
// empty). Exporting an empty run fails with domain.ErrEmptyStore.
func Shapefile(events []domain.GeoEvent, crs string) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("shapefile export: %w", domain.ErrEmptyStore)
	}

	proj, err := lookupCRS(crs)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "mapbook-shp-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	base := filepath.Join(dir, "events")
	if err := writeShapefile(base, events, proj); err != nil {
		return nil, err
	}
	// go-shp names the DBF part base+"dbf", without the extension dot.
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("rename dbf part: %w", err)
	}
	if err := os.WriteFile(base+".prj", []byte(proj.wkt), 0o644); err != nil {
		return nil, fmt.Errorf("write prj: %w", err)
	}

	return zipParts(base)
}

func writeShapefile(base string, events []domain.GeoEvent, proj projection) error {
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return fmt.Errorf("create shapefile: %w", err)
	}
	defer w.Close()

	if err := w.SetFields(shapeFields); err != nil {
		return fmt.Errorf("set dbf fields: %w", err)
	}
	for _, ev := range events {
		x, y := proj.forward(ev.Latitude, ev.Longitude)
		row := int(w.Write(&shp.Point{X: x, Y: y}))
		attrs := []string{
			truncate(ev.Title, 120),
			truncate(ev.Type, 60),
			truncate(ev.Content, 254),
			truncate(strings.Join(ev.Keywords, ", "), 254),
			truncate(ev.Address, 254),
		}
		for col, val := range attrs {
			if err := w.WriteAttribute(row, col, val); err != nil {
				return fmt.Errorf("write dbf attribute: %w", err)
			}
		}
	}
	return nil
}

// zipParts bundles the shapefile components into one archive.
func zipParts(base string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			return nil, fmt.Errorf("read %s part: %w", ext, err)
		}
		f, err := zw.Create("events" + ext)
		if err != nil {
			return nil, fmt.Errorf("zip %s part: %w", ext, err)
		}
		if _, err := f.Write(data); err != nil {
			return nil, fmt.Errorf("zip %s part: %w", ext, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
