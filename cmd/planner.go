package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/urfave/cli/v3"
)

// requireArg returns the named positional argument or an [shared.ErrMissingArgument].
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// writeNodes prints nodes as JSON or as an ID/Name table.
func writeNodes[T models.Node](r *Runner, cmd *cli.Command, nodes []T, empty string) error {
	if cmd.Bool("json") {
		if nodes == nil {
			nodes = []T{}
		}
		return r.writeJSON(nodes, cmd.Bool("pretty"))
	}
	if len(nodes) == 0 {
		return r.writePlain("%s\n", empty)
	}
	return r.writePlain("%s\n", formatter.NodesTable(nodes))
}

// PlannerClients lists the clients visible to the stored token.
func (r *Runner) PlannerClients(ctx context.Context, cmd *cli.Command) error {
	dir, err := r.directory()
	if err != nil {
		return err
	}

	clients, err := dir.Clients(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("fetched clients", "count", len(clients))
	return writeNodes(r, cmd, clients, shared.MsgNoClients)
}

// PlannerSites lists a client's sites.
func (r *Runner) PlannerSites(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	dir, err := r.directory()
	if err != nil {
		return err
	}

	sites, err := dir.Sites(ctx, id)
	if err != nil {
		return err
	}
	return writeNodes(r, cmd, sites, shared.MsgNoSites)
}

// PlannerBuildings lists a site's buildings.
func (r *Runner) PlannerBuildings(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	dir, err := r.directory()
	if err != nil {
		return err
	}

	buildings, err := dir.Buildings(ctx, id)
	if err != nil {
		return err
	}
	return writeNodes(r, cmd, buildings, shared.MsgNoBuildings)
}

// PlannerLevels lists a building's levels with their placed beacon counts.
func (r *Runner) PlannerLevels(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	dir, err := r.directory()
	if err != nil {
		return err
	}

	levels, err := dir.Levels(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") || len(levels) == 0 {
		return writeNodes(r, cmd, levels, shared.MsgNoLevels)
	}
	return r.writePlain("%s\n", formatter.LevelsTable(levels))
}

// PlannerGeoJSON fetches a level's map data. Output is always JSON.
func (r *Runner) PlannerGeoJSON(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	dir, err := r.directory()
	if err != nil {
		return err
	}

	data, err := dir.LevelGeoJSON(ctx, id)
	if err != nil {
		return err
	}
	if data.Empty() {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, shared.MsgNoGeoJSON)
	}

	if out := cmd.String("output"); out != "" {
		body, err := marshalJSON(data, cmd.Bool("pretty"))
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(out, body); err != nil {
			return err
		}
		r.logger.Info("geojson saved", "path", out, "features", len(data.GeoJSON.Features))
		return r.writePlain("✓ GeoJSON written to %s\n", out)
	}
	return r.writeJSON(data, cmd.Bool("pretty"))
}

// PlannerBeaconTypes lists a site's beacon hardware types.
func (r *Runner) PlannerBeaconTypes(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	dir, err := r.directory()
	if err != nil {
		return err
	}

	types, err := dir.BeaconTypes(ctx, id)
	if err != nil {
		return err
	}
	return writeNodes(r, cmd, types, "No beacon types registered for the selected site.")
}
