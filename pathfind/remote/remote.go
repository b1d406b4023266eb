// Package remote is an optional cross-check client against an
// external Valhalla-style routing service, used to validate the local
// contraction-hierarchy isochrone output against an independent
// implementation during development and map-quality audits. Grounded
// on angelodlfrtr-valhalla-http-client-go's Client (fasthttp transport,
// go-json body encoding, endpoint+headers config), narrowed to the one
// endpoint (isochrone) the simulation core's tooling needs.
package remote

import (
	"crypto/tls"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/paulmach/go.geojson"
	"github.com/valyala/fasthttp"
)

// Config points the client at a running Valhalla-compatible service.
type Config struct {
	Endpoint      string
	CustomHeaders map[string]string
	TLSConfig     *tls.Config
}

// Client is a thin fasthttp wrapper matching one remote routing
// engine's isochrone endpoint.
type Client struct {
	cfg        Config
	httpClient *fasthttp.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &fasthttp.Client{
			Name:      "simcore-pathfind-remote",
			TLSConfig: cfg.TLSConfig,
		},
	}
}

// Location is a single lat/lon isochrone source point.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsochroneRequest mirrors the upstream service's isochrone input
// shape, trimmed to the fields the cross-check tooling sets.
type IsochroneRequest struct {
	Locations     []Location `json:"locations"`
	Costing       string     `json:"costing"`
	ContourMinutes []int     `json:"contours_minutes,omitempty"`
}

const (
	CostingAuto       = "auto"
	CostingBicycle    = "bicycle"
	CostingBus        = "bus"
	CostingPedestrian = "pedestrian"
)

// Isochrone queries the remote service and parses the returned
// contour polygons as GeoJSON, ready to diff against the local
// Pathfinder.Isochrone distance map by bucketing local costs into the
// same minute contours.
func (c *Client) Isochrone(req IsochroneRequest) (*geojson.FeatureCollection, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("remote: encode isochrone request: %w", err)
	}

	httpReq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(httpReq)
	httpResp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(httpResp)

	if err := httpReq.URI().Parse(nil, []byte(c.cfg.Endpoint+"/isochrone")); err != nil {
		return nil, fmt.Errorf("remote: build request uri: %w", err)
	}
	for k, v := range c.cfg.CustomHeaders {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.SetMethod(fasthttp.MethodPost)
	httpReq.Header.SetContentType("application/json")
	httpReq.SetBody(body)

	if err := c.httpClient.Do(httpReq, httpResp); err != nil {
		return nil, fmt.Errorf("remote: isochrone request failed: %w", err)
	}
	if httpResp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("remote: isochrone request returned status %d", httpResp.StatusCode())
	}

	fc, err := geojson.UnmarshalFeatureCollection(httpResp.Body())
	if err != nil {
		return nil, fmt.Errorf("remote: decode isochrone response: %w", err)
	}
	return fc, nil
}
