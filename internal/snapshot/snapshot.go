package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/services"
	"github.com/desertthunder/ztx/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers  = 4
	MaxWorkers      = 10
	DefaultPageSize = 50
)

// EndpointError is a fetch that failed without ending the snapshot.
type EndpointError struct {
	Endpoint string
	Err      error
}

// Snapshot is everything the logged in user can see, fetched at TakenAt.
type Snapshot struct {
	TakenAt    time.Time
	Profile    *models.User
	Projects   []models.Project
	Categories []models.Category
	Markers    []models.Marker
	Tasks      []models.Task
	Statistics models.StatisticOverview
	Errors     []EndpointError
}

// Data is the serializable form of a [Snapshot].
type Data struct {
	TakenAt    time.Time                `json:"taken_at" yaml:"taken_at"`
	Profile    *models.User             `json:"profile,omitempty" yaml:"profile,omitempty"`
	Projects   []models.Project         `json:"projects" yaml:"projects"`
	Categories []models.Category        `json:"categories" yaml:"categories"`
	Markers    []models.Marker          `json:"markers" yaml:"markers"`
	Tasks      []models.Task            `json:"tasks" yaml:"tasks"`
	Statistics models.StatisticOverview `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	Errors     map[string]string        `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Data converts s for JSON or YAML output.
func (s *Snapshot) Data() Data {
	d := Data{
		TakenAt:    s.TakenAt,
		Profile:    s.Profile,
		Projects:   s.Projects,
		Categories: s.Categories,
		Markers:    s.Markers,
		Tasks:      s.Tasks,
		Statistics: s.Statistics,
	}
	if len(s.Errors) > 0 {
		d.Errors = make(map[string]string, len(s.Errors))
		for _, e := range s.Errors {
			d.Errors[e.Endpoint] = e.Err.Error()
		}
	}
	return d
}

// Options configure a snapshot run.
type Options struct {
	Workers  int // Concurrent fetches (default: 4, max: 10)
	PageSize int // Items per listing request (default: 50)
	Logger   *log.Logger
}

// Engine takes snapshots of a [services.Workspace].
type Engine struct {
	ws     services.Workspace
	opts   Options
	logger *log.Logger
}

// NewEngine creates an engine reading from ws.
func NewEngine(ws services.Workspace, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Workers > MaxWorkers {
		opts.Workers = MaxWorkers
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Engine{ws: ws, opts: opts, logger: logger}
}

type operation struct {
	name  string
	phase Phase
	fetch func(ctx context.Context) (int, error)
}

// Take fetches every endpoint concurrently.
//
// Failed endpoints are collected in [Snapshot.Errors] and the rest of the snapshot is still returned. An expired
// session stops all fetches and is returned as the error, since nothing else can succeed after it.
func (e *Engine) Take(ctx context.Context, progress chan<- ProgressUpdate) (*Snapshot, error) {
	if e.ws == nil {
		return nil, fmt.Errorf("%w: workspace not initialized", shared.ErrServiceUnavailable)
	}

	snap := &Snapshot{TakenAt: time.Now()}
	ops := e.operations(snap)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, op := range ops {
		g.Go(func() error {
			count, err := op.fetch(gctx)

			mu.Lock()
			defer mu.Unlock()
			done++

			if err != nil {
				if errors.Is(err, shared.ErrSessionExpired) {
					return err
				}
				e.logger.Warn("snapshot endpoint failed", "endpoint", op.name, "err", err)
				snap.Errors = append(snap.Errors, EndpointError{Endpoint: op.name, Err: err})
				sendProgress(progress, failedUpdate(op, done, len(ops), err))
				return nil
			}

			sendProgress(progress, fetchedUpdate(op, done, len(ops), count))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// operations lists the fetches of a snapshot. Each one writes only its own field of snap.
func (e *Engine) operations(snap *Snapshot) []operation {
	list := models.ListParams{Limit: e.opts.PageSize}

	return []operation{
		{name: "profile", phase: FetchProfile, fetch: func(ctx context.Context) (int, error) {
			user, err := e.ws.Profile(ctx)
			if err != nil {
				return 0, err
			}
			snap.Profile = user
			return 1, nil
		}},
		{name: "projects", phase: FetchProjects, fetch: func(ctx context.Context) (int, error) {
			items, err := collect(ctx, list, func(ctx context.Context, p models.ListParams) (*models.Page[models.Project], error) {
				return e.ws.ListProjects(ctx, models.ProjectParams{ListParams: p})
			})
			snap.Projects = items
			return len(items), err
		}},
		{name: "categories", phase: FetchCategories, fetch: func(ctx context.Context) (int, error) {
			items, err := collect(ctx, list, func(ctx context.Context, p models.ListParams) (*models.Page[models.Category], error) {
				return e.ws.ListCategories(ctx, models.CategoryParams{ListParams: p})
			})
			snap.Categories = items
			return len(items), err
		}},
		{name: "markers", phase: FetchMarkers, fetch: func(ctx context.Context) (int, error) {
			items, err := collect(ctx, list, func(ctx context.Context, p models.ListParams) (*models.Page[models.Marker], error) {
				return e.ws.ListMarkers(ctx, models.MarkerParams{ListParams: p})
			})
			snap.Markers = items
			return len(items), err
		}},
		{name: "tasks", phase: FetchTasks, fetch: func(ctx context.Context) (int, error) {
			items, err := collect(ctx, list, func(ctx context.Context, p models.ListParams) (*models.Page[models.Task], error) {
				return e.ws.ListTasks(ctx, models.TaskParams{ListParams: p})
			})
			snap.Tasks = items
			return len(items), err
		}},
		{name: "statistics", phase: FetchStatistics, fetch: func(ctx context.Context) (int, error) {
			stats, err := e.ws.Overview(ctx)
			if err != nil {
				return 0, err
			}
			snap.Statistics = stats
			return len(stats), nil
		}},
	}
}

// collect walks every page of a listing. Items fetched before a failure are kept.
func collect[T any](
	ctx context.Context,
	params models.ListParams,
	fetch func(context.Context, models.ListParams) (*models.Page[T], error),
) ([]T, error) {
	params.Page = 1
	items := []T{}
	for {
		page, err := fetch(ctx, params)
		if err != nil {
			return items, err
		}
		items = append(items, page.Items...)
		if !page.Pagination.HasNext || len(page.Items) == 0 {
			return items, nil
		}
		params.Page++
	}
}
