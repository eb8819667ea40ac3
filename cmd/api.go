package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/ztx/internal/formatter"
	"github.com/desertthunder/ztx/internal/services"
	"github.com/desertthunder/ztx/internal/shared"
	"github.com/desertthunder/ztx/internal/snapshot"
	"github.com/urfave/cli/v3"
)

func (r *Runner) writeResponse(resp *services.APIResponse, compact bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if compact && resp.IsJSON {
		return r.writeJSON(resp.JSONData, false)
	}
	return r.writePlain("%s\n", resp.Pretty())
}

// APIGet makes a direct GET request through the authenticated client
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("json"))
}

// APIRequest makes a direct request with any method and an optional JSON body
func (r *Runner) APIRequest(ctx context.Context, cmd *cli.Command) error {
	method, err := requireArg(cmd, "method")
	if err != nil {
		return err
	}
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	var body []byte
	if data := cmd.String("data"); data != "" {
		if err := shared.ValidateJSON([]byte(data)); err != nil {
			return err
		}
		body = []byte(data)
	}

	client, err := r.client()
	if err != nil {
		return err
	}

	r.logger.Info("raw request", "method", method, "path", path)

	resp, err := client.Raw(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode == http.StatusNoContent {
		return r.writePlain("✓ %d No Content\n", resp.StatusCode)
	}
	return r.writeResponse(resp, false)
}

// APIDump takes a concurrent snapshot of the workspace and prints or saves it.
//
// Progress goes to the log so stdout stays parseable.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format != formatter.FormatJSON && format != formatter.FormatYAML {
		return fmt.Errorf("%w: dump format must be json or yaml", shared.ErrInvalidArgument)
	}

	client, err := r.client()
	if err != nil {
		return err
	}

	engine := snapshot.NewEngine(client, snapshot.Options{
		Workers:  cmd.Int("workers"),
		PageSize: cmd.Int("page-size"),
		Logger:   shared.WithLogger(r.logger, "component", "snapshot"),
	})

	r.logger.Info("dumping workspace", "backend", client.BaseURL())

	progress := make(chan snapshot.ProgressUpdate, 16)
	var (
		snap    *snapshot.Snapshot
		takeErr error
	)
	go func() {
		snap, takeErr = engine.Take(ctx, progress)
		close(progress)
	}()

	for update := range progress {
		if update.Err != nil {
			r.logger.Warn(update.Message)
			continue
		}
		r.logger.Info(update.Message)
	}
	if takeErr != nil {
		return takeErr
	}

	data, err := formatter.Encode(snap.Data(), format)
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" || cmd.Bool("save") {
		path, err := formatter.WriteExport(data, output, "ztx_dump", format)
		if err != nil {
			return err
		}
		r.logger.Info("dump saved", "file", path, "errors", len(snap.Errors))
		return r.writePlain("✓ Dump saved to %s\n", path)
	}

	return r.writeBytes(data)
}

// StatsOverview prints the statistics overview as JSON or YAML.
func (r *Runner) StatsOverview(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	stats, err := client.Statistics.Overview(ctx)
	if err != nil {
		return err
	}

	data, err := formatter.Encode(stats, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}
