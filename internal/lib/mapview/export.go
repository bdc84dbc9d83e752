package mapview

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	kml "github.com/twpayne/go-kml/v2"
	"github.com/twpayne/go-polyline"
)

// EncodedPolyline returns the trace path as a Google encoded polyline.
func (t Trace) EncodedPolyline() string {
	coords := make([][]float64, len(t.Lat))
	for i := range t.Lat {
		coords[i] = []float64{t.Lat[i], t.Lon[i]}
	}
	return string(polyline.EncodeCoords(coords))
}

// lineString converts a trace to GeoJSON (longitude, latitude) order.
func (t Trace) lineString() orb.LineString {
	line := make(orb.LineString, len(t.Lat))
	for i := range t.Lat {
		line[i] = orb.Point{t.Lon[i], t.Lat[i]}
	}
	return line
}

// GeoJSON exports the figure as a FeatureCollection, one LineString feature
// per trace, with simplestyle properties.
func (f Figure) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range f.Traces {
		feature := geojson.NewFeature(t.lineString())
		feature.Properties["name"] = t.Name
		feature.Properties["stroke"] = t.Color
		feature.Properties["stroke-width"] = t.Width
		fc.Append(feature)
	}
	return fc
}

var kmlColors = map[string]color.Color{
	routeColor:   color.RGBA{B: 255, A: 255},
	closureColor: color.RGBA{R: 255, A: 255},
}

// WriteKML writes the figure as a KML document.
func (f Figure) WriteKML(w io.Writer) error {
	doc := kml.Document()
	for _, t := range f.Traces {
		coords := make([]kml.Coordinate, len(t.Lat))
		for i := range t.Lat {
			coords[i] = kml.Coordinate{Lon: t.Lon[i], Lat: t.Lat[i]}
		}

		lineColor, ok := kmlColors[t.Color]
		if !ok {
			lineColor = color.RGBA{A: 255}
		}

		doc.Add(kml.Placemark(
			kml.Name(t.Name),
			kml.Style(
				kml.LineStyle(
					kml.Color(lineColor),
					kml.Width(t.Width),
				),
			),
			kml.LineString(
				kml.Coordinates(coords...),
			),
		))
	}

	return errors.Wrap(kml.KML(doc).WriteIndent(w, "", "  "), "failed to write KML")
}

// mapPage is a self-contained Mapbox GL viewer. The figure is injected as
// JSON; traces become line layers over the configured style.
const mapPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Route closures</title>
    <link href="https://api.mapbox.com/mapbox-gl-js/v3.1.2/mapbox-gl.css" rel="stylesheet">
    <script src="https://api.mapbox.com/mapbox-gl-js/v3.1.2/mapbox-gl.js"></script>
    <style>
        body { margin: 0; }
        #map { position: absolute; top: 0; bottom: 0; width: 100%%; }
        #legend {
            position: absolute; top: 10px; left: 10px; z-index: 1;
            background: rgba(255, 255, 255, 0.8); padding: 8px 12px;
            font-family: Arial, sans-serif; font-size: 14px;
            border: 1px solid black;
        }
    </style>
</head>
<body>
<div id="map"></div>
<div id="legend">
    <div style="color: blue">&#9644; Route</div>
    <div style="color: red">&#9644; Closed Road</div>
</div>
<script>
    const figure = %s;

    mapboxgl.accessToken = figure.access_token;
    const map = new mapboxgl.Map({
        container: 'map',
        style: figure.style,
        center: [figure.center_lon, figure.center_lat],
        zoom: figure.zoom,
    });

    map.on('load', () => {
        figure.traces.forEach((trace, i) => {
            const coords = trace.lat.map((lat, j) => [trace.lon[j], lat]);
            map.addSource('trace-' + i, {
                type: 'geojson',
                data: {
                    type: 'Feature',
                    properties: { name: trace.name },
                    geometry: { type: 'LineString', coordinates: coords },
                },
            });
            map.addLayer({
                id: 'trace-' + i,
                type: 'line',
                source: 'trace-' + i,
                paint: { 'line-color': trace.color, 'line-width': trace.width },
            });
        });
    });
</script>
</body>
</html>
`

// WriteHTML writes the figure as a standalone HTML map page.
func (f Figure) WriteHTML(w io.Writer) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "failed to encode figure")
	}
	_, err = fmt.Fprintf(w, mapPage, data)
	return errors.Wrap(err, "failed to write map page")
}
