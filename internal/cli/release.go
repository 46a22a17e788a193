package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/libversion/internal/domain/bump"
	"github.com/launchbynttdata/libversion/internal/domain/releaseplan"
	"github.com/launchbynttdata/libversion/internal/services/release"
)

func newPlanCommand(rootFlags *rootFlagSet) *cobra.Command {
	var bumpFlag *stringFlag
	var baseFlag *stringFlag
	var prefixFlag *stringFlag

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the next library release from the repository's tags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			bumpValue := strings.TrimSpace(bumpFlag.Value(runtime.resolver))
			if bumpValue == "" {
				return fmt.Errorf(requiredFlagFormat, flagBump)
			}
			intent, err := bump.Parse(bumpValue)
			if err != nil {
				return err
			}

			client, err := buildClient(ctx, rootFlags, runtime)
			if err != nil {
				return err
			}

			tagPrefix := strings.TrimSpace(prefixFlag.Value(runtime.resolver))
			service := release.NewService(client, releaseplan.NewPlanner(runtime.name, tagPrefix))
			result, err := service.Plan(ctx, release.PlanConfig{
				Bump:        intent,
				BaseVersion: baseFlag.Value(runtime.resolver),
			})
			if err != nil {
				return err
			}

			log := runtime.logger.With(
				zap.String("tag", result.TagName),
				zap.String("releaseBase", result.ReleaseBase.String()),
				zap.String("baseSource", string(result.BaseSource)),
				zap.String("macro", result.Block.Macro),
			)
			if result.Latest != nil {
				log = log.With(zap.String("latest", result.Latest.Name))
			}
			log.Info("release planned")

			return writeBlock(cmd.OutOrStdout(), result.Block, formatText)
		},
	}

	fs := cmd.Flags()
	bumpFlag = bindStringFlag(fs, flagBump, flagBump, "", envBump, "", "Increment to apply (major, minor or revision)")
	baseFlag = bindStringFlag(fs, "base-version", "base-version", "", envBaseVersion, "", "Base version to use when no releases exist")
	prefixFlag = bindStringFlag(fs, flagTagPrefix, flagTagPrefix, "", envTagPrefix, defaultTagPrefix, "String prepended to release tag names")

	return cmd
}

func newPublishCommand(rootFlags *rootFlagSet) *cobra.Command {
	var (
		commitFlag  *stringFlag
		messageFlag *stringFlag
		nameFlag    *stringFlag
		emailFlag   *stringFlag
		prefixFlag  *stringFlag
		dryRunFlag  *boolFlag
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Create the annotated release tag for the metadata block",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			commit := strings.TrimSpace(commitFlag.Value(runtime.resolver))
			if commit == "" {
				return fmt.Errorf(requiredFlagFormat, flagCommitSHA)
			}

			dryRun, err := dryRunFlag.Value(runtime.resolver)
			if err != nil {
				return err
			}

			loaded, err := runtime.loadVerifiedBlock()
			if err != nil {
				return err
			}

			client, err := buildClient(ctx, rootFlags, runtime)
			if err != nil {
				return err
			}

			tagPrefix := strings.TrimSpace(prefixFlag.Value(runtime.resolver))
			service := release.NewService(client, releaseplan.NewPlanner(runtime.name, tagPrefix))
			cfg := release.PublishConfig{
				Block:       loaded.block,
				CommitSHA:   commit,
				Message:     messageFlag.Value(runtime.resolver),
				TaggerName:  nameFlag.Value(runtime.resolver),
				TaggerEmail: emailFlag.Value(runtime.resolver),
				DryRun:      dryRun,
			}
			result, err := service.Publish(ctx, cfg)
			if err != nil {
				return err
			}

			log := runtime.logger.With(
				zap.String("tag", result.TagName),
				zap.String("source", loaded.source),
				zap.String("commit", commit),
				zap.String("tagger", cfg.TaggerName),
				zap.Bool("dryRun", dryRun),
			)
			if dryRun {
				log.Info("release tag not created (dry run)")
			} else {
				log.Info("release tag created")
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), result.TagName); err != nil {
				return fmt.Errorf("writing publish result: %w", err)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	commitFlag = bindStringFlag(fs, flagCommitSHA, flagCommitSHA, "", envCommit, "", "Commit SHA the release tag should reference")
	messageFlag = bindStringFlag(fs, "tag-message", "tag-message", "", envTagMessage, "", "Message stored in the annotated tag (default: library banner)")
	nameFlag = bindStringFlag(fs, "tagger-name", "tagger-name", "", envTaggerName, defaultTaggerName, "Name recorded as the tagger")
	emailFlag = bindStringFlag(fs, "tagger-email", "tagger-email", "", envTaggerEmail, defaultTaggerEmail, "Email recorded as the tagger")
	prefixFlag = bindStringFlag(fs, flagTagPrefix, flagTagPrefix, "", envTagPrefix, defaultTagPrefix, "String prepended to release tag names")
	dryRunFlag = bindBoolFlag(fs, "dry-run", "dry-run", "", envDryRun, false, "Check publishability without creating the tag")

	return cmd
}
