package release

import (
	"context"
	"errors"
	"testing"

	"github.com/launchbynttdata/libversion/internal/ado"
	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/internal/domain/bump"
	"github.com/launchbynttdata/libversion/internal/domain/releaseplan"
)

const (
	sampleCommit       = "0123456789abcdef0123456789abcdef01234567"
	taggerNameDefault  = "bot"
	taggerEmailDefault = "bot@example.com"
)

type fakeRefClient struct {
	refs       []ado.Ref
	listErr    error
	lastPrefix string
	created    []ado.TagSpec
}

func (f *fakeRefClient) ListRefsWithPrefix(_ context.Context, prefix string) ([]ado.Ref, error) {
	f.lastPrefix = prefix
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.refs, nil
}

func (f *fakeRefClient) CreateAnnotatedTag(_ context.Context, spec ado.TagSpec) error {
	f.created = append(f.created, spec)
	return nil
}

func newTestService(client ado.Client) Service {
	return NewService(client, releaseplan.NewPlanner("ArduinoJson", "v"))
}

func publishConfig() PublishConfig {
	return PublishConfig{
		Block:       block.Current(),
		CommitSHA:   sampleCommit,
		TaggerName:  taggerNameDefault,
		TaggerEmail: taggerEmailDefault,
	}
}

func TestPlanFromExistingTags(t *testing.T) {
	t.Parallel()

	client := &fakeRefClient{refs: []ado.Ref{{Name: "refs/tags/v7.1.4"}, {Name: "refs/tags/v7.2.0-rc.1"}}}

	result, err := newTestService(client).Plan(context.Background(), PlanConfig{Bump: bump.BumpMinor})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if client.lastPrefix != tagRefPrefix {
		t.Fatalf("expected prefix %s got %s", tagRefPrefix, client.lastPrefix)
	}
	if result.TagName != "v7.2.0" || result.Block.Macro != "V720" {
		t.Fatalf("unexpected plan %s %s", result.TagName, result.Block.Macro)
	}
}

func TestPublishCreatesTag(t *testing.T) {
	t.Parallel()

	client := &fakeRefClient{refs: []ado.Ref{{Name: "refs/tags/v7.2.0"}}}

	result, err := newTestService(client).Publish(context.Background(), publishConfig())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if result.TagName != "v7.2.1" {
		t.Fatalf("tag name: want v7.2.1 got %s", result.TagName)
	}
	if len(client.created) != 1 {
		t.Fatalf("expected one tag created got %d", len(client.created))
	}
	spec := client.created[0]
	if spec.ObjectID != sampleCommit || spec.ObjectType != ado.TagObjectTypeCommit {
		t.Fatalf("unexpected spec %+v", spec)
	}
	if spec.Message != "ArduinoJson 7.2.1 (V721)" {
		t.Fatalf("unexpected default message %q", spec.Message)
	}
}

func TestPublishDryRunSkipsCreation(t *testing.T) {
	t.Parallel()

	client := &fakeRefClient{}
	cfg := publishConfig()
	cfg.DryRun = true

	if _, err := newTestService(client).Publish(context.Background(), cfg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(client.created) != 0 {
		t.Fatalf("dry run created %d tags", len(client.created))
	}
}

func TestPublishRefusesExistingRelease(t *testing.T) {
	t.Parallel()

	client := &fakeRefClient{refs: []ado.Ref{{Name: "refs/tags/v7.2.1"}}}

	_, err := newTestService(client).Publish(context.Background(), publishConfig())
	if !errors.Is(err, releaseplan.ErrAlreadyTagged) {
		t.Fatalf("expected already tagged got %v", err)
	}
	if len(client.created) != 0 {
		t.Fatalf("tag must not be created")
	}
}

func TestPublishRejectsInconsistentBlock(t *testing.T) {
	t.Parallel()

	client := &fakeRefClient{}
	cfg := publishConfig()
	cfg.Block.Macro = "V999"

	if _, err := newTestService(client).Publish(context.Background(), cfg); err == nil {
		t.Fatalf("expected verification error")
	}
	if client.lastPrefix != "" {
		t.Fatalf("refs must not be listed for an inconsistent block")
	}
}

func TestPublishValidatesInputs(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		mutate func(*PublishConfig)
		want   error
	}{
		"commit": {mutate: func(c *PublishConfig) { c.CommitSHA = " " }, want: ErrEmptyCommit},
		"tagger": {mutate: func(c *PublishConfig) { c.TaggerName = "" }, want: ErrEmptyTagger},
		"email":  {mutate: func(c *PublishConfig) { c.TaggerEmail = "" }, want: ErrEmptyEmail},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := publishConfig()
			tc.mutate(&cfg)
			_, err := newTestService(&fakeRefClient{}).Publish(context.Background(), cfg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
}

func TestNilClient(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, releaseplan.NewPlanner("x", "")).Plan(context.Background(), PlanConfig{})
	if !errors.Is(err, ErrNilClient) {
		t.Fatalf("expected nil client error got %v", err)
	}
}

func TestPlanWrapsListError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := newTestService(&fakeRefClient{listErr: boom}).Plan(context.Background(), PlanConfig{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped list error got %v", err)
	}
}
