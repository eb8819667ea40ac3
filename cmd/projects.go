package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ztx/internal/models"
	"github.com/desertthunder/ztx/internal/shared"
	"github.com/urfave/cli/v3"
)

// requireArg returns the named positional argument or an ErrMissingArgument.
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func pageFooter(p models.Pagination, total int) string {
	return fmt.Sprintf("\nPage %d of %d (%d total)\n", p.Page, max(p.Pages, 1), total)
}

// writeItem prints one item as JSON with --json, or hands it to plain.
func writeItem[T any](r *Runner, cmd *cli.Command, item *T, plain func(*T) error) error {
	if cmd.Bool("json") {
		return r.writeJSON(item, cmd.Bool("pretty"))
	}
	return plain(item)
}

// ProjectsList lists projects.
func (r *Runner) ProjectsList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	page, err := client.Projects.List(ctx, models.ProjectParams{
		ListParams: listParams(cmd),
		IsFavorite: optionalBool(cmd, "favorite"),
		IsActive:   optionalBool(cmd, "active"),
		IsHidden:   optionalBool(cmd, "hidden"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Projects")
	for _, p := range page.Items {
		star := " "
		if p.IsFavorite {
			star = "★"
		}
		r.writePlain("%s %s  %s (%s)\n", star, p.ID, p.Name, p.Slug)
	}
	return r.writePlain("%s", pageFooter(page.Pagination, page.Total))
}

// ProjectsNames lists the sidebar view of every project.
func (r *Runner) ProjectsNames(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	names, err := client.Projects.Names(ctx, models.ProjectParams{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(names, cmd.Bool("pretty"))
	}
	for _, n := range names {
		r.writePlain("%s  %s (%d open)\n", n.ID, n.Name, n.IncompleteTasksCount)
	}
	return nil
}

// ProjectsShow shows one project.
func (r *Runner) ProjectsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	var project *models.Project
	if cmd.Bool("slug") {
		project, err = client.Projects.GetBySlug(ctx, id)
	} else {
		project, err = client.Projects.Get(ctx, id)
	}
	if err != nil {
		return err
	}

	return writeItem(r, cmd, project, func(p *models.Project) error {
		r.writePlainHeader(p.Name)
		r.writePlain("ID: %s\nSlug: %s\n", p.ID, p.Slug)
		if d := models.Deref(p.Description); d != "" {
			r.writePlain("Description: %s\n", d)
		}
		r.writePlain("Active: %t  Favorite: %t  Hidden: %t\n", p.IsActive, p.IsFavorite, p.IsHidden)
		if c := p.Count; c != nil {
			r.writePlain("Members: %d  Tasks: %d  Categories: %d\n", c.Members, c.Tasks, c.Categories)
		}
		return nil
	})
}

// ProjectsCreate creates a project.
func (r *Runner) ProjectsCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	project, err := client.Projects.Create(ctx, models.ProjectInput{
		Name:        name,
		Description: cmd.String("description"),
		IsFavorite:  optionalBool(cmd, "favorite"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created project %s (%s)\n", project.Name, project.ID)
}

// ProjectsUpdate changes the fields given as flags.
func (r *Runner) ProjectsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	project, err := client.Projects.Update(ctx, id, models.ProjectInput{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		IsFavorite:  optionalBool(cmd, "favorite"),
		IsHidden:    optionalBool(cmd, "hidden"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated project %s\n", project.Name)
}

// ProjectsDelete deletes a project.
func (r *Runner) ProjectsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if err := client.Projects.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted project %s\n", id)
}

func parseRoles(values []string) ([]models.UserRole, error) {
	roles := make([]models.UserRole, 0, len(values))
	for _, v := range values {
		role, ok := models.ParseRole(v)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q (OWNER, ADMIN, MEMBER, VIEWER)", shared.ErrInvalidArgument, v)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// MembersAdd adds a user to a project.
func (r *Runner) MembersAdd(ctx context.Context, cmd *cli.Command) error {
	project, err := requireArg(cmd, "project")
	if err != nil {
		return err
	}
	user, err := requireArg(cmd, "user")
	if err != nil {
		return err
	}
	roles, err := parseRoles(cmd.StringSlice("role"))
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	m, err := client.Projects.AddMember(ctx, project, models.AddMemberInput{UserID: user, Roles: roles})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to %s as member %s\n", user, project, m.ID)
}

// MembersRemove removes a member from a project.
func (r *Runner) MembersRemove(ctx context.Context, cmd *cli.Command) error {
	project, err := requireArg(cmd, "project")
	if err != nil {
		return err
	}
	member, err := requireArg(cmd, "member")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if err := client.Projects.RemoveMember(ctx, project, member); err != nil {
		return err
	}
	return r.writePlain("✓ Removed member %s from %s\n", member, project)
}

// MembersRole replaces the roles of a member.
func (r *Runner) MembersRole(ctx context.Context, cmd *cli.Command) error {
	project, err := requireArg(cmd, "project")
	if err != nil {
		return err
	}
	member, err := requireArg(cmd, "member")
	if err != nil {
		return err
	}
	roles, err := parseRoles(cmd.StringSlice("role"))
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	m, err := client.Projects.SetMemberRoles(ctx, project, member, roles)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Member %s now has roles %v\n", m.ID, m.Roles)
}

// CategoriesList lists categories.
func (r *Runner) CategoriesList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	page, err := client.Categories.List(ctx, models.CategoryParams{
		ListParams: listParams(cmd),
		ProjectID:  cmd.String("project"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Categories")
	for _, c := range page.Items {
		r.writePlain("%s  %s (project %s)\n", c.ID, c.Name, c.ProjectID)
	}
	return r.writePlain("%s", pageFooter(page.Pagination, page.Total))
}

// CategoriesNames lists category names.
func (r *Runner) CategoriesNames(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	names, err := client.Categories.Names(ctx, models.CategoryParams{ProjectID: cmd.String("project")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(names, cmd.Bool("pretty"))
	}
	for _, n := range names {
		r.writePlain("%s  %s (%d open)\n", n.ID, n.Name, n.IncompleteTasksCount)
	}
	return nil
}

// CategoriesShow shows one category.
func (r *Runner) CategoriesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	var category *models.Category
	if cmd.Bool("slug") {
		category, err = client.Categories.GetBySlug(ctx, id)
	} else {
		category, err = client.Categories.Get(ctx, id)
	}
	if err != nil {
		return err
	}

	return writeItem(r, cmd, category, func(c *models.Category) error {
		r.writePlainHeader(c.Name)
		r.writePlain("ID: %s\nSlug: %s\nProject: %s\n", c.ID, c.Slug, c.ProjectID)
		if d := models.Deref(c.Description); d != "" {
			r.writePlain("Description: %s\n", d)
		}
		return nil
	})
}

// CategoriesCreate creates a category.
func (r *Runner) CategoriesCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	category, err := client.Categories.Create(ctx, models.CategoryInput{
		Name:        name,
		Description: cmd.String("description"),
		ProjectID:   cmd.String("project"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created category %s (%s)\n", category.Name, category.ID)
}

// CategoriesUpdate changes the fields given as flags.
func (r *Runner) CategoriesUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	category, err := client.Categories.Update(ctx, id, models.CategoryInput{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated category %s\n", category.Name)
}

// CategoriesDelete deletes a category.
func (r *Runner) CategoriesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if err := client.Categories.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted category %s\n", id)
}

// MarkersList lists markers.
func (r *Runner) MarkersList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	page, err := client.Markers.List(ctx, models.MarkerParams{
		ListParams: listParams(cmd),
		IsDefault:  optionalBool(cmd, "default"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Markers")
	for _, m := range page.Items {
		r.writePlain("%s  %s\n", m.ID, m.Name)
	}
	return r.writePlain("%s", pageFooter(page.Pagination, page.Total))
}

// MarkersNames lists marker names.
func (r *Runner) MarkersNames(ctx context.Context, cmd *cli.Command) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	names, err := client.Markers.Names(ctx, models.MarkerParams{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(names, cmd.Bool("pretty"))
	}
	for _, n := range names {
		r.writePlain("%s  %s\n", n.ID, n.Name)
	}
	return nil
}

// MarkersShow shows one marker.
func (r *Runner) MarkersShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	var marker *models.Marker
	if cmd.Bool("slug") {
		marker, err = client.Markers.GetBySlug(ctx, id)
	} else {
		marker, err = client.Markers.Get(ctx, id)
	}
	if err != nil {
		return err
	}

	return writeItem(r, cmd, marker, func(m *models.Marker) error {
		r.writePlainHeader(m.Name)
		r.writePlain("ID: %s\nSlug: %s\nDefault: %t\n", m.ID, m.Slug, m.IsDefault)
		return nil
	})
}

// MarkersCreate creates a marker.
func (r *Runner) MarkersCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	marker, err := client.Markers.Create(ctx, models.MarkerInput{
		Name:      name,
		FontColor: cmd.String("font-color"),
		BgColor:   cmd.String("bg-color"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created marker %s (%s)\n", marker.Name, marker.ID)
}

// MarkersUpdate changes the fields given as flags.
func (r *Runner) MarkersUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	marker, err := client.Markers.Update(ctx, id, models.MarkerInput{
		Name:      cmd.String("name"),
		FontColor: cmd.String("font-color"),
		BgColor:   cmd.String("bg-color"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated marker %s\n", marker.Name)
}

// MarkersDelete deletes a marker.
func (r *Runner) MarkersDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if err := client.Markers.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted marker %s\n", id)
}
