package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gs "github.com/dmitrijs2005/ucredit/internal/server/grpc"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"google.golang.org/grpc/status"
)

var errUsage = errors.New("usage")

// parseKV splits key=value arguments. Keys are lower-cased.
func parseKV(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", errUsage, arg)
		}
		kv[strings.ToLower(k)] = v
	}
	return kv, nil
}

func splitIDs(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (a *App) printCourse(c *models.Course) {
	mark := " "
	if c.Taken {
		mark = "x"
	}
	fmt.Fprintf(a.out, "[%s] %s  %-12s %-30s %5.1f  %s/%s  %s\n",
		mark, c.ID, c.Number, c.Title, c.Credits, c.Year, c.Term, strings.Join(c.DistributionIDs, ","))
}

func (a *App) printResult(res *gs.CourseResponse) {
	if res.Course != nil {
		a.printCourse(res.Course)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(a.out, "warning: %s for %s failed: %s\n", w.Step, w.TargetID, w.Error)
	}
	if res.CreditReconciliationRequired {
		fmt.Fprintf(a.out, "credits not updated, reconcile distributions: %s\n", strings.Join(res.AffectedDistributionIDs, ","))
		if res.Course != nil {
			fmt.Fprintf(a.out, "run: reconcile %s\n", res.Course.ID)
		}
	}
}

func (a *App) report(err error) error {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(a.out, "error: %s (%s)\n", s.Message(), s.Code())
	} else {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}

func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.client.Ping(ctx, &gs.PingRequest{})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "server:", resp.Status)
	return nil
}

// Add handles: add user=<id> year=<year> credits=<n> [term=] [title=]
// [number=] [taken=true] [dists=<id>,<id>]
func (a *App) Add(ctx context.Context, args []string) error {
	kv, err := parseKV(args)
	if err != nil {
		return a.report(err)
	}

	req := &gs.AddCourseRequest{
		UserID:          kv["user"],
		DistributionIDs: splitIDs(kv["dists"]),
		Title:           kv["title"],
		Number:          kv["number"],
		Term:            kv["term"],
		Year:            kv["year"],
	}
	if req.Credits, err = strconv.ParseFloat(kv["credits"], 64); err != nil {
		return a.report(fmt.Errorf("%w: credits must be a number", errUsage))
	}
	if v, ok := kv["taken"]; ok {
		if req.Taken, err = strconv.ParseBool(v); err != nil {
			return a.report(fmt.Errorf("%w: taken must be true or false", errUsage))
		}
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.client.AddCourse(ctx, req)
	if err != nil {
		return a.report(err)
	}
	a.printResult(res)
	return nil
}

// Taken handles: taken <course_id> true|false
func (a *App) Taken(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.report(fmt.Errorf("%w: taken <course_id> true|false", errUsage))
	}
	taken, err := strconv.ParseBool(args[1])
	if err != nil {
		return a.report(fmt.Errorf("%w: taken <course_id> true|false", errUsage))
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.client.ChangeTakenStatus(ctx, &gs.ChangeTakenStatusRequest{CourseID: args[0], Taken: &taken})
	if err != nil {
		return a.report(err)
	}
	a.printResult(res)
	return nil
}

// Move handles: move <course_id> [<distribution_id>,...]
func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return a.report(fmt.Errorf("%w: move <course_id> [<distribution_id>,...]", errUsage))
	}
	ids := []string{}
	if len(args) == 2 {
		ids = splitIDs(args[1])
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.client.ChangeDistribution(ctx, &gs.ChangeDistributionRequest{CourseID: args[0], DistributionIDs: ids})
	if err != nil {
		return a.report(err)
	}
	a.printResult(res)
	return nil
}

// Delete handles: delete <course_id>
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(fmt.Errorf("%w: delete <course_id>", errUsage))
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.client.DeleteCourse(ctx, &gs.CourseRequest{CourseID: args[0]})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "deleted:")
	a.printResult(res)
	return nil
}

// Reconcile handles: reconcile <course_id>
func (a *App) Reconcile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(fmt.Errorf("%w: reconcile <course_id>", errUsage))
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.client.ReconcileCourse(ctx, &gs.CourseRequest{CourseID: args[0]})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "reconciled:")
	a.printResult(res)
	return nil
}

// Show handles: show <course_id>
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.report(fmt.Errorf("%w: show <course_id>", errUsage))
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.client.GetCourse(ctx, &gs.CourseRequest{CourseID: args[0]})
	if err != nil {
		return a.report(err)
	}
	a.printResult(res)
	return nil
}

// List handles: list user=<id> | list dist=<id> | list user=<id> year=<y> term=<t>
func (a *App) List(ctx context.Context, args []string) error {
	kv, err := parseKV(args)
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.client.ListCourses(ctx, &gs.ListCoursesRequest{
		UserID:         kv["user"],
		DistributionID: kv["dist"],
		Year:           kv["year"],
		Term:           kv["term"],
	})
	if err != nil {
		return a.report(err)
	}
	if len(resp.Courses) == 0 {
		fmt.Fprintln(a.out, "no courses")
	}
	for _, c := range resp.Courses {
		a.printCourse(c)
	}
	return nil
}
