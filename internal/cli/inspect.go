package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/pkg/libversion"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(10)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func newShowCommand(rootFlags *rootFlagSet) *cobra.Command {
	var formatFlag *stringFlag

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the version metadata block",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			format := strings.ToLower(strings.TrimSpace(formatFlag.Value(runtime.resolver)))

			loaded, err := runtime.loadBlock()
			if err != nil {
				return err
			}

			return writeBlock(cmd.OutOrStdout(), loaded.block, format)
		},
	}

	fs := cmd.Flags()
	formatFlag = bindStringFlag(fs, "format", "format", "o", envFormat, formatText, "Output format (text, json or yaml)")

	return cmd
}

func writeBlock(out io.Writer, b block.Block, format string) error {
	switch format {
	case formatText, "":
		return writeBlockText(out, b, isTerminal(out))
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid format %q", format)
	}
}

func writeBlockText(out io.Writer, b block.Block, styled bool) error {
	rows := [][2]string{
		{"name", b.Name},
		{"version", b.Version},
		{"major", fmt.Sprint(b.Major)},
		{"minor", fmt.Sprint(b.Minor)},
		{"revision", fmt.Sprint(b.Revision)},
		{"macro", b.Macro},
	}

	var sb strings.Builder
	if styled {
		sb.WriteString(bannerStyle.Render(b.Banner()))
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), valueStyle.Render(row[1])))
			sb.WriteString("\n")
		}
	} else {
		for _, row := range rows {
			fmt.Fprintf(&sb, "%-9s %s\n", row[0]+":", row[1])
		}
	}

	if _, err := io.WriteString(out, sb.String()); err != nil {
		return fmt.Errorf("writing block: %w", err)
	}
	return nil
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newCheckCommand(rootFlags *rootFlagSet) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the version string, numeric triple and macro tag agree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			loaded, err := runtime.loadBlock()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			styled := isTerminal(out)

			verr := loaded.block.Verify()
			if verr == nil {
				runtime.logger.Info("version block consistent",
					zap.String("source", loaded.source),
					zap.String("version", loaded.block.Version),
					zap.String("macro", loaded.block.Macro),
				)
				line := fmt.Sprintf("ok: %s (%s)", loaded.block.Banner(), loaded.block.Macro)
				if styled {
					line = okStyle.Render(line)
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return fmt.Errorf("writing check result: %w", err)
				}
				return nil
			}

			problems := violations(verr)
			for _, problem := range problems {
				line := "- " + problem
				if styled {
					line = problemStyle.Render(line)
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return fmt.Errorf("writing check result: %w", err)
				}
			}
			runtime.logger.Warn("version block inconsistent",
				zap.String("source", loaded.source),
				zap.Int("violations", len(problems)),
			)
			return fmt.Errorf("%s: %w (%d violations)", loaded.source, ErrInconsistent, len(problems))
		},
	}
}

func violations(err error) []string {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		out = append(out, e.Error())
	}
	return out
}

func newRequireCommand(rootFlags *rootFlagSet) *cobra.Command {
	var minFlag *stringFlag

	cmd := &cobra.Command{
		Use:   "require",
		Short: "Fail unless the metadata block is at least the given version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			minValue := strings.TrimSpace(minFlag.Value(runtime.resolver))
			if minValue == "" {
				return fmt.Errorf(requiredFlagFormat, flagMinVersion)
			}
			minimum, err := libversion.Parse(minValue)
			if err != nil {
				return err
			}

			loaded, err := runtime.loadVerifiedBlock()
			if err != nil {
				return err
			}

			current := loaded.block.Triple()
			log := runtime.logger.With(
				zap.String("source", loaded.source),
				zap.String("version", current.String()),
				zap.String("required", minimum.String()),
			)
			if !current.AtLeast(minimum) {
				log.Warn("version requirement not met")
				return fmt.Errorf("%w: %s is older than required %s", libversion.ErrTooOld, loaded.block.Banner(), minimum)
			}

			log.Info("version requirement met")
			return nil
		},
	}

	fs := cmd.Flags()
	minFlag = bindStringFlag(fs, flagMinVersion, flagMinVersion, "", envMinVersion, "", "Minimum acceptable MAJOR.MINOR.REVISION")

	return cmd
}
