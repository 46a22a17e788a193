package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/libversion/internal/ado"
	"github.com/launchbynttdata/libversion/internal/config"
	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/internal/logging"
	"github.com/launchbynttdata/libversion/internal/version"
	"github.com/launchbynttdata/libversion/pkg/libversion"
)

const (
	envLogLevel    = "LIBVER_LOG_LEVEL"
	envHeader      = "LIBVER_HEADER"
	envName        = "LIBVER_NAME"
	envMacroPrefix = "LIBVER_MACRO_PREFIX"

	envOrgURL  = "LIBVER_ORG_URL"
	envProject = "LIBVER_PROJECT"
	envRepo    = "LIBVER_REPO"
	envToken   = "LIBVER_TOKEN"

	envFormat      = "LIBVER_FORMAT"
	envMinVersion  = "LIBVER_MIN_VERSION"
	envLang        = "LIBVER_LANG"
	envVersion     = "LIBVER_VERSION"
	envPackage     = "LIBVER_PACKAGE"
	envOutput      = "LIBVER_OUTPUT"
	envBanner      = "LIBVER_BANNER"
	envBump        = "LIBVER_BUMP"
	envWrite       = "LIBVER_WRITE"
	envBaseVersion = "LIBVER_BASE_VERSION"
	envTagPrefix   = "LIBVER_TAG_PREFIX"
	envCommit      = "LIBVER_COMMIT_SHA"
	envTagMessage  = "LIBVER_TAG_MESSAGE"
	envTaggerName  = "LIBVER_TAGGER_NAME"
	envTaggerEmail = "LIBVER_TAGGER_EMAIL"
	envDryRun      = "LIBVER_DRY_RUN"

	requiredFlagFormat = "%s is required"
)

const (
	flagHeader      = "header"
	flagMacroPrefix = "macro-prefix"
	flagBump        = "bump"
	flagCommitSHA   = "commit-sha"
	flagMinVersion  = "min"
	flagTagPrefix   = "tag-prefix"

	defaultTagPrefix   = "v"
	defaultTaggerName  = "libver"
	defaultTaggerEmail = "libver@example.com"
)

// ErrInconsistent is returned by commands that find a block whose
// representations disagree.
var ErrInconsistent = errors.New("inconsistent version block")

// Execute runs the CLI root command with the provided context.
func Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return newRootCommand().ExecuteContext(ctx)
}

type rootFlagSet struct {
	logLevel    *stringFlag
	header      *stringFlag
	name        *stringFlag
	macroPrefix *stringFlag
	orgURL      *stringFlag
	project     *stringFlag
	repo        *stringFlag
	token       *stringFlag
}

type runtimeConfig struct {
	resolver config.Resolver
	logger   *zap.Logger
	name     string
	prefix   string
	header   string
}

// loadedBlock is a block together with where it was read from.
type loadedBlock struct {
	block  block.Block
	source string
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "libver",
		Short:         "Inspect, verify and release library version metadata",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate("libver {{.Version}}\n")

	flags := bindRootFlags(cmd)
	cmd.AddCommand(
		newShowCommand(flags),
		newCheckCommand(flags),
		newRequireCommand(flags),
		newRenderCommand(flags),
		newBumpCommand(flags),
		newPlanCommand(flags),
		newPublishCommand(flags),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "libver %s\nbundled: %s\n", version.Summary(), version.Bundled()); err != nil {
				return fmt.Errorf("writing version info: %w", err)
			}
			return nil
		},
	}
}

func bindRootFlags(cmd *cobra.Command) *rootFlagSet {
	fs := cmd.PersistentFlags()
	return &rootFlagSet{
		logLevel:    bindStringFlag(fs, "log-level", "log-level", "", envLogLevel, logging.LevelTerse, "Log verbosity (quiet, terse or verbose)"),
		header:      bindStringFlag(fs, flagHeader, flagHeader, "", envHeader, "", "C header holding the version defines (default: compiled-in metadata)"),
		name:        bindStringFlag(fs, "name", "name", "", envName, libversion.Name, "Library name recorded in the metadata block"),
		macroPrefix: bindStringFlag(fs, flagMacroPrefix, flagMacroPrefix, "", envMacroPrefix, "", "Macro prefix of the header defines (default: upper-cased library name)"),
		orgURL:      bindStringFlag(fs, "org-url", "org-url", "", envOrgURL, "", "Azure DevOps organization URL"),
		project:     bindStringFlag(fs, "project", "project", "", envProject, "", "Azure DevOps project name"),
		repo:        bindStringFlag(fs, "repo", "repo", "", envRepo, "", "Azure DevOps repository name"),
		token:       bindSecretFlag(fs, "token", "token", "", envToken, "", "Azure DevOps personal access token or System.AccessToken"),
	}
}

func buildRuntime(flags *rootFlagSet) (runtimeConfig, func(), error) {
	nopResolver := config.NewResolver(zap.NewNop())
	logLevel := flags.logLevel.Value(nopResolver)

	logger, err := logging.New(logLevel)
	if err != nil {
		return runtimeConfig{}, nil, fmt.Errorf("configuring logger: %w", err)
	}

	resolver := config.NewResolver(logger)
	_ = flags.logLevel.Value(resolver)

	name := strings.TrimSpace(flags.name.Value(resolver))
	if name == "" {
		return runtimeConfig{}, nil, fmt.Errorf("name is required (set %s or --name)", envName)
	}

	prefix := strings.TrimSpace(flags.macroPrefix.Value(resolver))
	if prefix == "" {
		prefix = block.DefaultPrefix(name)
	}

	cleanup := func() {
		_ = logger.Sync()
	}

	return runtimeConfig{
		resolver: resolver,
		logger:   logger,
		name:     name,
		prefix:   prefix,
		header:   strings.TrimSpace(flags.header.Value(resolver)),
	}, cleanup, nil
}

// loadBlock reads the configured header, or falls back to the compiled-in
// constants when no header is set.
func (r runtimeConfig) loadBlock() (loadedBlock, error) {
	if r.header == "" {
		r.logger.Debug("using compiled-in metadata", zap.String("banner", libversion.Banner()))
		return loadedBlock{block: block.Current(), source: "compiled-in"}, nil
	}

	f, err := os.Open(r.header)
	if err != nil {
		return loadedBlock{}, fmt.Errorf("opening header: %w", err)
	}
	defer f.Close()

	b, err := block.ParseHeader(f, r.name, r.prefix)
	if err != nil {
		return loadedBlock{}, fmt.Errorf("parsing %s: %w", r.header, err)
	}

	r.logger.Debug("header parsed",
		zap.String("header", r.header),
		zap.String("prefix", r.prefix),
		zap.String("version", b.Version),
		zap.String("macro", b.Macro),
	)

	return loadedBlock{block: b, source: r.header}, nil
}

// loadVerifiedBlock is loadBlock followed by a consistency check.
func (r runtimeConfig) loadVerifiedBlock() (loadedBlock, error) {
	loaded, err := r.loadBlock()
	if err != nil {
		return loadedBlock{}, err
	}
	if err := loaded.block.Verify(); err != nil {
		return loadedBlock{}, fmt.Errorf("%s: %w: %w", loaded.source, ErrInconsistent, err)
	}
	return loaded, nil
}

func buildClient(ctx context.Context, flags *rootFlagSet, runtime runtimeConfig) (ado.Client, error) {
	resolver := runtime.resolver

	orgURL := strings.TrimSpace(flags.orgURL.Value(resolver))
	if orgURL == "" {
		return nil, fmt.Errorf("org-url is required (set %s or --org-url)", envOrgURL)
	}

	project := strings.TrimSpace(flags.project.Value(resolver))
	if project == "" {
		return nil, fmt.Errorf("project is required (set %s or --project)", envProject)
	}

	repo := strings.TrimSpace(flags.repo.Value(resolver))
	if repo == "" {
		return nil, fmt.Errorf("repo is required (set %s or --repo)", envRepo)
	}

	token := strings.TrimSpace(flags.token.Value(resolver))
	if token == "" {
		return nil, fmt.Errorf("token is required (set %s or --token)", envToken)
	}

	return ado.NewClient(ctx, ado.Config{
		OrganizationURL: orgURL,
		Project:         project,
		Repository:      repo,
		Token:           token,
	})
}
