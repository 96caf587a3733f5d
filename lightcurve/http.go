package lightcurve

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
)

// HTTPSource fetches light curves from an archive service exposing
//
//	GET <BaseURL>/lightcurves/<id>
//
// which answers with a JSON array of {"sector", "time", "flux", "flux_err"}
// objects; null samples are allowed. A 404 means the star has no data.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

type sectorPayload struct {
	Sector  string     `json:"sector"`
	Time    []*float64 `json:"time"`
	Flux    []*float64 `json:"flux"`
	FluxErr []*float64 `json:"flux_err"`
}

// Fetch implements [Source].
func (s HTTPSource) Fetch(ctx context.Context, starID string) ([]Observation, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := strings.TrimRight(s.BaseURL, "/") + "/lightcurves/" + url.PathEscape(starID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lightcurve: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lightcurve: request TIC %s: %w", starID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w for TIC %s", ErrNoLightCurves, starID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lightcurve: TIC %s: unexpected status %s", starID, resp.Status)
	}

	var payload []sectorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("lightcurve: decode TIC %s: %w", starID, err)
	}

	out := make([]Observation, 0, len(payload))
	for _, p := range payload {
		lc := LightCurve{Time: unwrap(p.Time), Flux: unwrap(p.Flux)}
		if len(p.FluxErr) > 0 {
			lc.FluxErr = unwrap(p.FluxErr)
		}
		if lc.Len() == 0 {
			continue
		}
		lc.Normalize()
		label := p.Sector
		if label == "" {
			label = UnknownSector
		}
		out = append(out, Observation{Sector: label, Curve: lc})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w for TIC %s", ErrNoLightCurves, starID)
	}
	return out, nil
}

func unwrap(v []*float64) []float64 {
	out := make([]float64, len(v))
	for i, p := range v {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	return out
}
