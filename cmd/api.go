package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// rawAPI returns an [services.APIService] that sends the stored token.
func (r *Runner) rawAPI() (*services.APIService, error) {
	dir, err := r.directory()
	if err != nil {
		return nil, err
	}
	return services.NewAPIService(dir.BaseURL(), dir.HTTPClient()), nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	return r.writePlain("%s\n", resp.Body)
}

// APIGet makes a direct GET request to the planning API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	api, err := r.rawAPI()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the planning API
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	api, err := r.rawAPI()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, true)
}

// DumpBuilding is one building of a hierarchy dump.
type DumpBuilding struct {
	models.Building
	Levels []models.Level `json:"levels"`
}

// DumpSite is one site of a hierarchy dump.
type DumpSite struct {
	models.Site
	Buildings   []DumpBuilding      `json:"buildings"`
	BeaconTypes []models.BeaconType `json:"beaconTypes,omitempty"`
}

// DumpData is the full hierarchy below one client. Fetch failures are collected, not fatal.
type DumpData struct {
	ClientID string              `json:"clientId"`
	Sites    []DumpSite          `json:"sites"`
	Errors   []map[string]string `json:"errors,omitempty"`
}

// APIDump walks and prints a client's whole hierarchy.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	clientID := cmd.String("client")
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	dir, err := r.directory()
	if err != nil {
		return err
	}

	r.logger.Info("dumping hierarchy", "client", clientID)

	dump := DumpData{ClientID: clientID, Sites: []DumpSite{}}
	fail := func(endpoint string, err error) {
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint, "error": err.Error()})
		r.logger.Warn("dump fetch failed", "endpoint", endpoint, "error", err)
	}

	sites, err := dir.Sites(ctx, clientID)
	if err != nil {
		return err
	}

	for _, site := range sites {
		ds := DumpSite{Site: site, Buildings: []DumpBuilding{}}

		if types, err := dir.BeaconTypes(ctx, site.ID); err != nil {
			fail("/site/"+site.ID+"/beacon-types", err)
		} else {
			ds.BeaconTypes = types
		}

		buildings, err := dir.Buildings(ctx, site.ID)
		if err != nil {
			fail("/site/"+site.ID+"/buildings", err)
		}
		for _, b := range buildings {
			db := DumpBuilding{Building: b, Levels: []models.Level{}}
			if levels, err := dir.Levels(ctx, b.ID); err != nil {
				fail("/building/"+b.ID+"/levels", err)
			} else if levels != nil {
				db.Levels = levels
			}
			ds.Buildings = append(ds.Buildings, db)
		}
		dump.Sites = append(dump.Sites, ds)
	}

	if save {
		saveFile := "api_dump.json"
		data, err := marshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := formatter.WriteFile(saveFile, data); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}
