package adapters

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"taxbridge/internal/core/config"
	"taxbridge/internal/core/httpclient"
)

// NexusRegionsAdapter implements the NexusChecker port against the rate
// service's nexus regions endpoint. The region list is fetched once per
// process and reused.
type NexusRegionsAdapter struct {
	client *http.Client
	config config.TaxServiceConfig

	mu      sync.Mutex
	regions []nexusRegion
	loaded  bool
}

type nexusRegionsResponse struct {
	Regions []nexusRegion `json:"regions"`
}

type nexusRegion struct {
	// CountryCode is the two-letter country of the registered region.
	CountryCode string `json:"country_code"`
	// RegionCode is the state/province code, empty for country-wide nexus.
	RegionCode string `json:"region_code"`
}

// NewNexusRegionsAdapter creates a nexus checker from the service
// configuration.
func NewNexusRegionsAdapter(cfg config.TaxServiceConfig) *NexusRegionsAdapter {
	return &NexusRegionsAdapter{
		client: httpclient.NewClient(time.Duration(cfg.TimeoutSeconds) * time.Second),
		config: cfg,
	}
}

// HasNexus reports whether any registered region covers the destination.
// US and CA registrations are per-state, so those destinations need a
// matching region code; elsewhere a registration in the country suffices.
func (a *NexusRegionsAdapter) HasNexus(country, state string) (bool, error) {
	regions, err := a.loadRegions()
	if err != nil {
		return false, err
	}

	perRegion := country == "US" || country == "CA"

	for _, r := range regions {
		if r.CountryCode != country {
			continue
		}
		if !perRegion || r.RegionCode == state {
			return true, nil
		}
	}

	return false, nil
}

func (a *NexusRegionsAdapter) loadRegions() ([]nexusRegion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.loaded {
		return a.regions, nil
	}

	req, err := http.NewRequest(http.MethodGet, a.config.URL+"/nexus/regions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create nexus request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Token token=%q", a.config.Token))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nexus regions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nexus regions request returned status: %d", resp.StatusCode)
	}

	var parsed nexusRegionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode nexus regions: %w", err)
	}

	a.regions = parsed.Regions
	a.loaded = true
	return a.regions, nil
}
