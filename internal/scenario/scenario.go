// Package scenario drives end-to-end verification runs: create a repository,
// upload content units, publish, fetch the generated metadata and verify it
// against the expectations derived from the uploaded units.
package scenario

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/repoverify/repoverify/internal/expect"
	"github.com/repoverify/repoverify/internal/pulp"
	"github.com/repoverify/repoverify/internal/signer"
	"github.com/repoverify/repoverify/internal/unit"
	"github.com/repoverify/repoverify/internal/verify"
	"github.com/repoverify/repoverify/internal/xmltree"
)

// Phase is the furthest setup step a run completed.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseUnitsUploaded
	PhasePublished
	PhaseFetched
	PhaseVerified
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "Created"
	case PhaseUnitsUploaded:
		return "UnitsUploaded"
	case PhasePublished:
		return "Published"
	case PhaseFetched:
		return "Fetched"
	case PhaseVerified:
		return "Verified"
	default:
		return "Unknown"
	}
}

// Scenario holds the collaborators shared by all runs.
type Scenario struct {
	Client  *pulp.Client
	Defects *DefectPolicy
	// Signer, when non-nil, additionally verifies the detached signature on
	// the published repomd.xml.
	Signer *signer.Verifier
}

// Result is the outcome of one run. Discrepancies are only meaningful when
// Phase is PhaseVerified.
type Result struct {
	Kind          string
	Phase         Phase
	RepoID        string
	DistributorID string
	RelativeURL   string
	// Tasks maps each uploaded unit key to the tasks its import spawned.
	Tasks         map[string][]pulp.Task
	Document      *xmltree.Node
	Skipped       []int
	Discrepancies []verify.Discrepancy
}

// upload is one pending unit import.
type upload struct {
	key      string
	typeID   string
	unitKey  map[string]interface{}
	metadata interface{}
}

// RunGroups uploads the given package groups into a fresh repository,
// publishes it and verifies the generated comps document.
func (s *Scenario) RunGroups(ctx context.Context, groups []unit.PackageGroup) (*Result, error) {
	expectations := make([]expect.Expectation, 0, len(groups))
	for _, g := range groups {
		expectations = append(expectations, expect.ForGroup(g))
	}

	uploads := func(repoID string) []upload {
		out := make([]upload, 0, len(groups))
		for _, g := range groups {
			out = append(out, upload{
				key:    g.ID,
				typeID: unit.TypePackageGroup,
				// Group identity is scoped to its repository.
				unitKey:  map[string]interface{}{"id": g.ID, "repo_id": repoID},
				metadata: g,
			})
		}
		return out
	}

	return s.run(ctx, "group", verify.Comps, expectations, uploads)
}

// RunErrata uploads the given errata into a fresh repository, publishes it
// and verifies the generated updateinfo document.
func (s *Scenario) RunErrata(ctx context.Context, errata []unit.Erratum) (*Result, error) {
	expectations := make([]expect.Expectation, 0, len(errata))
	for _, e := range errata {
		expectations = append(expectations, expect.ForErratum(e))
	}

	uploads := func(string) []upload {
		out := make([]upload, 0, len(errata))
		for _, e := range errata {
			out = append(out, upload{
				key:      e.ID,
				typeID:   unit.TypeErratum,
				unitKey:  map[string]interface{}{"id": e.ID},
				metadata: e,
			})
		}
		return out
	}

	return s.run(ctx, "updateinfo", verify.UpdateInfo, expectations, uploads)
}

func (s *Scenario) run(ctx context.Context, kind string, shape verify.Shape, expectations []expect.Expectation, uploads func(repoID string) []upload) (*Result, error) {
	repoID := "repoverify-" + uuid.NewString()
	result := &Result{Kind: kind, Tasks: map[string][]pulp.Task{}}

	logrus.Infof("Creating repository %s for %s verification", repoID, kind)
	repo, err := s.Client.CreateRepository(ctx, repoID)
	if err != nil {
		return result, &ScenarioError{Kind: ErrTransport, Op: "create repository", Err: err}
	}
	result.RepoID = repo.ID
	result.Phase = PhaseCreated

	dist, err := s.Client.AddYumDistributor(ctx, repoID, "yum_distributor", repoID)
	if err != nil {
		return result, &ScenarioError{Kind: ErrTransport, Op: "add distributor", Err: err}
	}
	result.DistributorID = dist.ID
	result.RelativeURL = dist.Config.RelativeURL
	if result.RelativeURL == "" {
		result.RelativeURL = repoID
	}

	for _, u := range uploads(repoID) {
		tasks, err := s.importUnit(ctx, repoID, u)
		result.Tasks[u.key] = tasks
		if err != nil {
			return result, err
		}
	}
	result.Phase = PhaseUnitsUploaded

	if err := s.publish(ctx, repoID, result.DistributorID); err != nil {
		return result, err
	}
	result.Phase = PhasePublished

	if s.Signer != nil {
		if err := s.Client.VerifyRepomdSignature(ctx, result.RelativeURL, s.Signer); err != nil {
			return result, &ScenarioError{Kind: ErrPrecondition, Op: "verify metadata signature", Err: err}
		}
	}

	doc, err := s.Client.FetchMetadata(ctx, result.RelativeURL, kind)
	if err != nil {
		return result, &ScenarioError{Kind: ErrTransport, Op: "fetch " + kind + " metadata", Err: err}
	}
	result.Document = doc
	result.Phase = PhaseFetched

	result.Skipped = s.Defects.Apply(expectations)
	result.Discrepancies = verify.Document(doc, shape, expectations)
	result.Phase = PhaseVerified

	logrus.Infof("Verified %s document of %s: %d discrepancies", kind, repoID, len(result.Discrepancies))
	return result, nil
}

// importUnit uploads and imports one unit, waiting for its task to finish.
// A rejected import or a failed task is a precondition failure.
func (s *Scenario) importUnit(ctx context.Context, repoID string, u upload) ([]pulp.Task, error) {
	logrus.Debugf("Importing %s unit %s into %s", u.typeID, u.key, repoID)
	report, err := s.Client.UploadImport(ctx, repoID, u.typeID, u.unitKey, u.metadata)
	if err != nil {
		return nil, &ScenarioError{Kind: ErrTransport, Op: "import unit " + u.key, Err: err}
	}
	if len(report.SpawnedTasks) != 1 {
		return nil, &ScenarioError{
			Kind: ErrPrecondition,
			Op:   "import unit " + u.key,
			Err:  fmt.Errorf("expected 1 spawned task, got %d", len(report.SpawnedTasks)),
		}
	}

	tasks, err := s.Client.AwaitTasks(ctx, report.SpawnedTasks)
	if err != nil {
		return tasks, &ScenarioError{Kind: ErrTransport, Op: "await import of " + u.key, Err: err}
	}
	for _, task := range tasks {
		if !task.Succeeded() {
			return tasks, &ScenarioError{
				Kind: ErrPrecondition,
				Op:   "import unit " + u.key,
				Err:  fmt.Errorf("task %s ended in state %s", task.TaskID, task.State),
			}
		}
	}
	return tasks, nil
}

func (s *Scenario) publish(ctx context.Context, repoID, distributorID string) error {
	report, err := s.Client.Publish(ctx, repoID, distributorID)
	if err != nil {
		return &ScenarioError{Kind: ErrTransport, Op: "publish", Err: err}
	}
	tasks, err := s.Client.AwaitTasks(ctx, report.SpawnedTasks)
	if err != nil {
		return &ScenarioError{Kind: ErrTransport, Op: "await publish", Err: err}
	}
	for _, task := range tasks {
		if !task.Succeeded() {
			return &ScenarioError{
				Kind: ErrPrecondition,
				Op:   "publish",
				Err:  fmt.Errorf("task %s ended in state %s", task.TaskID, task.State),
			}
		}
	}
	return nil
}

// Cleanup deletes the repositories the given results created. Failures are
// collected so one stubborn repository does not hide the rest.
func (s *Scenario) Cleanup(ctx context.Context, results ...*Result) error {
	var errs *multierror.Error
	for _, r := range results {
		if r == nil || r.RepoID == "" {
			continue
		}
		if err := s.Client.DeleteRepository(ctx, r.RepoID); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
