// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ztx/internal/models"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

// listFlags are the paging, search and sort flags every listing accepts.
func listFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "page", Usage: "Page number (1-based)", Value: 1},
		&cli.IntFlag{Name: "limit", Usage: "Items per page", Value: 20},
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search by name"},
		&cli.StringFlag{Name: "sort-by", Usage: "Field to sort by"},
		&cli.StringFlag{Name: "order", Usage: "Sort order (asc or desc)"},
		jsonFlag(),
		prettyFlag(),
	}
	return append(flags, extra...)
}

func listParams(cmd *cli.Command) models.ListParams {
	return models.ListParams{
		Page:      cmd.Int("page"),
		Limit:     cmd.Int("limit"),
		Search:    cmd.String("search"),
		SortBy:    cmd.String("sort-by"),
		SortOrder: cmd.String("order"),
	}
}

// optionalBool is nil unless the flag was given on the command line.
func optionalBool(cmd *cli.Command, name string) *bool {
	if !cmd.IsSet(name) {
		return nil
	}
	return models.Bool(cmd.Bool(name))
}

// setupCommand handles setup operations for the configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles the session with the backend.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the session with the backend",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the access token and refresh cookie",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("ZTX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("ZTX_PASSWORD"),
					},
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "logout",
				Usage: "Sign out and forget the stored session",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Sign out every device"},
				},
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session and access token expiry",
				Action: r.AuthStatus,
			},
			{
				Name:    "profile",
				Aliases: []string{"whoami"},
				Usage:   "Show the signed in user",
				Flags:   []cli.Flag{jsonFlag(), prettyFlag()},
				Action:  r.AuthProfile,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh cookie for a new access token",
				Action: r.AuthRefresh,
			},
		},
	}
}

// projectsCommand handles project and membership operations.
func projectsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "projects",
		Aliases: []string{"project", "p"},
		Usage:   "Project operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List projects",
				Flags: listFlags(
					&cli.BoolFlag{Name: "favorite", Usage: "Only favorites (--favorite=false for the rest)"},
					&cli.BoolFlag{Name: "active", Usage: "Only active projects"},
					&cli.BoolFlag{Name: "hidden", Usage: "Only hidden projects"},
				),
				Action: r.ProjectsList,
			},
			{
				Name:   "names",
				Usage:  "List project names with open task counts",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.ProjectsNames,
			},
			{
				Name:      "show",
				Usage:     "Show a project by id, or by slug with --slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "slug", Usage: "Treat the argument as a slug"},
					jsonFlag(), prettyFlag(),
				},
				Action: r.ProjectsShow,
			},
			{
				Name:      "create",
				Usage:     "Create a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Project description"},
					&cli.BoolFlag{Name: "favorite", Usage: "Mark as favorite"},
				},
				Action: r.ProjectsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
					&cli.BoolFlag{Name: "favorite", Usage: "Favorite flag"},
					&cli.BoolFlag{Name: "hidden", Usage: "Hidden flag"},
				},
				Action: r.ProjectsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ProjectsDelete,
			},
			{
				Name:  "members",
				Usage: "Project membership",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Add a user to a project",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "project"},
							&cli.StringArg{Name: "user"},
						},
						Flags: []cli.Flag{
							&cli.StringSliceFlag{Name: "role", Usage: "Role (OWNER, ADMIN, MEMBER, VIEWER); repeatable"},
						},
						Action: r.MembersAdd,
					},
					{
						Name:  "remove",
						Usage: "Remove a member from a project",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "project"},
							&cli.StringArg{Name: "member"},
						},
						Action: r.MembersRemove,
					},
					{
						Name:  "role",
						Usage: "Replace the roles of a member",
						Arguments: []cli.Argument{
							&cli.StringArg{Name: "project"},
							&cli.StringArg{Name: "member"},
						},
						Flags: []cli.Flag{
							&cli.StringSliceFlag{Name: "role", Usage: "Role; repeatable", Required: true},
						},
						Action: r.MembersRole,
					},
				},
			},
		},
	}
}

// categoriesCommand handles category operations.
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"category", "c"},
		Usage:   "Category operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List categories",
				Flags:  listFlags(&cli.StringFlag{Name: "project", Usage: "Project id"}),
				Action: r.CategoriesList,
			},
			{
				Name:  "names",
				Usage: "List category names with open task counts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Usage: "Project id"},
					jsonFlag(), prettyFlag(),
				},
				Action: r.CategoriesNames,
			},
			{
				Name:      "show",
				Usage:     "Show a category by id, or by slug with --slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "slug", Usage: "Treat the argument as a slug"},
					jsonFlag(), prettyFlag(),
				},
				Action: r.CategoriesShow,
			},
			{
				Name:      "create",
				Usage:     "Create a category in a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Usage: "Project id", Required: true},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Category description"},
				},
				Action: r.CategoriesCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a category",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
				},
				Action: r.CategoriesUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a category",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CategoriesDelete,
			},
		},
	}
}

// markersCommand handles marker operations.
func markersCommand(r *Runner) *cli.Command {
	colors := []cli.Flag{
		&cli.StringFlag{Name: "font-color", Usage: "Text color, e.g. #ffffff"},
		&cli.StringFlag{Name: "bg-color", Usage: "Background color, e.g. #d73a4a"},
	}

	return &cli.Command{
		Name:    "markers",
		Aliases: []string{"marker", "m"},
		Usage:   "Marker operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List markers",
				Flags:  listFlags(&cli.BoolFlag{Name: "default", Usage: "Only default markers"}),
				Action: r.MarkersList,
			},
			{
				Name:   "names",
				Usage:  "List marker names",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.MarkersNames,
			},
			{
				Name:      "show",
				Usage:     "Show a marker by id, or by slug with --slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "slug", Usage: "Treat the argument as a slug"},
					jsonFlag(), prettyFlag(),
				},
				Action: r.MarkersShow,
			},
			{
				Name:      "create",
				Usage:     "Create a marker",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     colors,
				Action:    r.MarkersCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a marker",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     append([]cli.Flag{&cli.StringFlag{Name: "name", Usage: "New name"}}, colors...),
				Action:    r.MarkersUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a marker",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.MarkersDelete,
			},
		},
	}
}

func taskFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "project", Usage: "Project id"},
		&cli.StringFlag{Name: "status", Usage: "Task status, e.g. in-progress"},
		&cli.StringFlag{Name: "assignee", Usage: "Assignee user id"},
		&cli.StringFlag{Name: "category", Usage: "Category id"},
		&cli.StringFlag{Name: "due-from", Usage: "Earliest due date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "due-to", Usage: "Latest due date (YYYY-MM-DD)"},
		&cli.BoolFlag{Name: "overdue", Usage: "Only overdue tasks"},
		&cli.BoolFlag{Name: "assigned", Usage: "Only assigned tasks (--assigned=false for unassigned)"},
	}
}

func taskInputFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "project", Usage: "Project id", Required: required},
		&cli.StringFlag{Name: "name", Usage: "Task name"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Task description"},
		&cli.StringFlag{Name: "status", Usage: "Task status"},
		&cli.StringFlag{Name: "note", Usage: "Task note"},
		&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "category", Usage: "Category id"},
		&cli.StringFlag{Name: "assignee", Usage: "Assignee user id"},
	}
}

// tasksCommand handles task operations and exports.
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tasks",
		Aliases: []string{"task", "t"},
		Usage:   "Task operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tasks",
				Flags: listFlags(append(taskFilterFlags(),
					&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Fetch every page"},
				)...),
				Action: r.TasksList,
			},
			{
				Name:      "show",
				Usage:     "Show a task",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.TasksShow,
			},
			{
				Name:      "create",
				Usage:     "Create a task",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     taskInputFlags(true),
				Action:    r.TasksCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a task",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     taskInputFlags(false),
				Action:    r.TasksUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a task",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TasksDelete,
			},
			{
				Name:  "status",
				Usage: "Set the status of a task, or advance it with --next",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "status"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "next", Usage: "Move to the next workflow status"},
				},
				Action: r.TasksStatus,
			},
			{
				Name:  "assign",
				Usage: "Assign a task to a user; without a user the task is unassigned",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "user"},
				},
				Action: r.TasksAssign,
			},
			{
				Name:  "mark",
				Usage: "Attach a marker to a task",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "marker"},
				},
				Action: r.TasksMark,
			},
			{
				Name:  "unmark",
				Usage: "Detach a marker from a task",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "marker"},
				},
				Action: r.TasksUnmark,
			},
			{
				Name:  "export",
				Usage: "Export tasks to json, csv, markdown, yaml or txt",
				Flags: append(taskFilterFlags(),
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format", Value: "markdown"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (default: tasks.{ext})"},
					&cli.StringFlag{Name: "title", Usage: "Markdown document title", Value: "Tasks"},
					&cli.BoolFlag{Name: "stdout", Usage: "Write to stdout instead of a file"},
				),
				Action: r.TasksExport,
			},
		},
	}
}

// statsCommand handles statistics.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "stats",
		Aliases: []string{"statistics"},
		Usage:   "Show the statistics overview",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json or yaml", Value: "json"},
		},
		Action: r.StatsOverview,
	}
}

// apiCommand handles direct API calls and the workspace dump.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls through the authenticated client",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "request",
				Usage: "Direct request with any method and an optional JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "method"},
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
				},
				Action: r.APIRequest,
			},
			{
				Name:  "dump",
				Usage: "Concurrent snapshot of the whole workspace (profile, projects, categories, markers, tasks, stats)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json or yaml", Value: "json"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent fetches (max 10)", Value: 4},
					&cli.IntFlag{Name: "page-size", Usage: "Items per listing request", Value: 50},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to ztx_dump.{format}",
					},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Save dump to this path"},
				},
				Action: r.APIDump,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive task management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive task browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-file", Usage: "Where to write logs while the TUI runs", Value: "./tmp/ztx-tui.log"},
		},
		Action: r.TUI,
	}
}
