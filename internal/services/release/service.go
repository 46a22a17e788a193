package release

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/launchbynttdata/libversion/internal/ado"
	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/internal/domain/bump"
	"github.com/launchbynttdata/libversion/internal/domain/releaseplan"
)

const tagRefPrefix = "refs/tags/"

var (
	ErrNilClient   = errors.New("release service: nil ado client")
	ErrEmptyCommit = errors.New("release service: commit sha is empty")
	ErrEmptyTagger = errors.New("release service: tagger name is empty")
	ErrEmptyEmail  = errors.New("release service: tagger email is empty")
)

// PlanConfig captures the inputs required to compute the next release.
type PlanConfig struct {
	Bump        bump.Bump
	BaseVersion string
}

// PublishConfig describes the block to release and the annotated tag metadata.
type PublishConfig struct {
	Block       block.Block
	CommitSHA   string
	Message     string
	TaggerName  string
	TaggerEmail string
	DryRun      bool
}

// Service orchestrates fetching ADO refs and delegating to the release planner.
type Service struct {
	client  ado.Client
	planner releaseplan.Planner
}

// NewService constructs a Service instance.
func NewService(client ado.Client, planner releaseplan.Planner) Service {
	return Service{client: client, planner: planner}
}

// Plan fetches release tags from ADO and returns the next release.
func (s Service) Plan(ctx context.Context, cfg PlanConfig) (releaseplan.Result, error) {
	tags, err := s.listTags(ctx)
	if err != nil {
		return releaseplan.Result{}, err
	}
	return s.planner.PlanRelease(tags, cfg.Bump, cfg.BaseVersion)
}

// Publish verifies the block, checks it is newer than every existing release
// and creates its annotated tag. With DryRun set no tag is created.
func (s Service) Publish(ctx context.Context, cfg PublishConfig) (releaseplan.Result, error) {
	if err := cfg.Block.Verify(); err != nil {
		return releaseplan.Result{}, fmt.Errorf("inconsistent version block: %w", err)
	}

	commit := strings.TrimSpace(cfg.CommitSHA)
	if commit == "" {
		return releaseplan.Result{}, ErrEmptyCommit
	}

	taggerName := strings.TrimSpace(cfg.TaggerName)
	if taggerName == "" {
		return releaseplan.Result{}, ErrEmptyTagger
	}

	taggerEmail := strings.TrimSpace(cfg.TaggerEmail)
	if taggerEmail == "" {
		return releaseplan.Result{}, ErrEmptyEmail
	}

	tags, err := s.listTags(ctx)
	if err != nil {
		return releaseplan.Result{}, err
	}

	plan, err := s.planner.CheckPublishable(tags, cfg.Block)
	if err != nil {
		return plan, err
	}

	if cfg.DryRun {
		return plan, nil
	}

	message := strings.TrimSpace(cfg.Message)
	if message == "" {
		message = cfg.Block.Banner() + " (" + cfg.Block.Macro + ")"
	}

	spec := ado.TagSpec{
		Name:        plan.TagName,
		ObjectID:    commit,
		ObjectType:  ado.TagObjectTypeCommit,
		Message:     message,
		TaggerName:  taggerName,
		TaggerEmail: taggerEmail,
	}

	if err := s.client.CreateAnnotatedTag(ctx, spec); err != nil {
		return releaseplan.Result{}, fmt.Errorf("creating annotated tag: %w", err)
	}

	return plan, nil
}

func (s Service) listTags(ctx context.Context) ([]releaseplan.Tag, error) {
	if s.client == nil {
		return nil, ErrNilClient
	}

	refs, err := s.client.ListRefsWithPrefix(ctx, tagRefPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing refs: %w", err)
	}

	return toPlannerTags(refs), nil
}

func toPlannerTags(refs []ado.Ref) []releaseplan.Tag {
	if len(refs) == 0 {
		return nil
	}

	tags := make([]releaseplan.Tag, 0, len(refs))
	for _, ref := range refs {
		tags = append(tags, releaseplan.Tag{Name: ref.Name, ObjectID: ref.ObjectID})
	}
	return tags
}
