package ado

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	azuredevops "github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
)

// Config controls how the Azure DevOps client connects to the Git API.
type Config struct {
	OrganizationURL string
	Project         string
	Repository      string
	Token           string
}

// NewClient constructs a Client backed by the official Azure DevOps Go SDK.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if ctx == nil {
		return nil, errors.New("ado client: context is nil")
	}

	trimmed := sanitizeConfig(cfg)
	if err := validateConfig(trimmed); err != nil {
		return nil, err
	}

	connection := azuredevops.NewPatConnection(trimmed.OrganizationURL, trimmed.Token)
	gitClient, err := git.NewClient(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("creating git client: %w", err)
	}

	return newSDKClient(gitClient, trimmed.Project, trimmed.Repository), nil
}

// refsAPI is the subset of git.Client the release workflow calls.
type refsAPI interface {
	GetRefs(ctx context.Context, args git.GetRefsArgs) (*git.GetRefsResponseValue, error)
	CreateAnnotatedTag(ctx context.Context, args git.CreateAnnotatedTagArgs) (*git.GitAnnotatedTag, error)
}

type sdkClient struct {
	git        refsAPI
	project    *string
	repository *string
	now        func() time.Time
}

func newSDKClient(api refsAPI, project, repository string) *sdkClient {
	return &sdkClient{
		git:        api,
		project:    &project,
		repository: &repository,
		now:        time.Now,
	}
}

// ListRefsWithPrefix returns all refs whose names start with the provided prefix.
// Pages are followed until the service stops returning a continuation token.
func (c *sdkClient) ListRefsWithPrefix(ctx context.Context, prefix string) ([]Ref, error) {
	filter := strings.TrimSpace(prefix)
	filter = strings.TrimPrefix(filter, "refs/")
	var continuation *string
	var results []Ref

	for {
		args := git.GetRefsArgs{
			Project:      c.project,
			RepositoryId: c.repository,
		}
		if filter != "" {
			args.Filter = &filter
		}
		if continuation != nil {
			args.ContinuationToken = continuation
		}

		resp, err := c.git.GetRefs(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("listing refs: %w", err)
		}
		if resp == nil {
			break
		}

		results = append(results, convertGitRefs(resp.Value)...)

		if resp.ContinuationToken == "" {
			break
		}
		token := resp.ContinuationToken
		continuation = &token
	}

	return results, nil
}

// CreateAnnotatedTag creates an annotated tag referencing the supplied commit.
func (c *sdkClient) CreateAnnotatedTag(ctx context.Context, spec TagSpec) error {
	tag, err := buildAnnotatedTag(spec, c.now().UTC())
	if err != nil {
		return err
	}

	args := git.CreateAnnotatedTagArgs{
		Project:      c.project,
		RepositoryId: c.repository,
		TagObject:    &tag,
	}

	if _, err := c.git.CreateAnnotatedTag(ctx, args); err != nil {
		return fmt.Errorf("creating annotated tag: %w", err)
	}

	return nil
}

func sanitizeConfig(cfg Config) Config {
	return Config{
		OrganizationURL: strings.TrimSpace(cfg.OrganizationURL),
		Project:         strings.TrimSpace(cfg.Project),
		Repository:      strings.TrimSpace(cfg.Repository),
		Token:           strings.TrimSpace(cfg.Token),
	}
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.OrganizationURL == "":
		return errors.New("ado client: organization url is required")
	case cfg.Project == "":
		return errors.New("ado client: project is required")
	case cfg.Repository == "":
		return errors.New("ado client: repository is required")
	case cfg.Token == "":
		return errors.New("ado client: token is required")
	default:
		return nil
	}
}

func convertGitRefs(values []git.GitRef) []Ref {
	if len(values) == 0 {
		return nil
	}
	refs := make([]Ref, 0, len(values))
	for _, r := range values {
		refs = append(refs, Ref{
			Name:     strings.TrimSpace(derefString(r.Name)),
			ObjectID: strings.TrimSpace(derefString(r.ObjectId)),
		})
	}
	return refs
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func buildAnnotatedTag(spec TagSpec, stamp time.Time) (git.GitAnnotatedTag, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return git.GitAnnotatedTag{}, errors.New("ado client: tag name is empty")
	}

	objectID := strings.ToLower(strings.TrimSpace(spec.ObjectID))
	if !isCommitSHA(objectID) {
		return git.GitAnnotatedTag{}, fmt.Errorf("%w: %q", ErrInvalidObjectID, spec.ObjectID)
	}

	objectType, err := convertObjectType(spec.ObjectType)
	if err != nil {
		return git.GitAnnotatedTag{}, err
	}

	taggerName := strings.TrimSpace(spec.TaggerName)
	if taggerName == "" {
		return git.GitAnnotatedTag{}, errors.New("ado client: tagger name is empty")
	}

	taggerEmail := strings.TrimSpace(spec.TaggerEmail)
	if taggerEmail == "" {
		return git.GitAnnotatedTag{}, errors.New("ado client: tagger email is empty")
	}

	annotated := git.GitAnnotatedTag{}
	annotated.Name = &name
	annotated.TaggedObject = &git.GitObject{ObjectId: &objectID, ObjectType: objectType}

	if message := strings.TrimSpace(spec.Message); message != "" {
		annotated.Message = &message
	}

	date := azuredevops.Time{Time: stamp}
	annotated.TaggedBy = &git.GitUserDate{
		Name:  &taggerName,
		Email: &taggerEmail,
		Date:  &date,
	}

	return annotated, nil
}

func isCommitSHA(value string) bool {
	if len(value) != 40 {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func convertObjectType(objectType TagObjectType) (*git.GitObjectType, error) {
	switch objectType {
	case "", TagObjectTypeCommit:
		value := git.GitObjectTypeValues.Commit
		return &value, nil
	default:
		return nil, fmt.Errorf("ado client: unsupported tag object type %q", objectType)
	}
}
