package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchbynttdata/libversion/internal/domain/block"
	"github.com/launchbynttdata/libversion/internal/domain/bump"
	"github.com/launchbynttdata/libversion/pkg/libversion"
)

const (
	langC  = "c"
	langGo = "go"

	defaultGoPackage = "libversion"
)

type renderFlagSet struct {
	lang    *stringFlag
	version *stringFlag
	pkg     *stringFlag
	output  *stringFlag
	banner  *stringSliceFlag
}

func newRenderCommand(rootFlags *rootFlagSet) *cobra.Command {
	var flags renderFlagSet

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Emit the metadata block as a C header or Go source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, cleanup, err := buildRuntime(rootFlags)
			if err != nil {
				return err
			}
			defer cleanup()

			var b block.Block
			if raw := strings.TrimSpace(flags.version.Value(runtime.resolver)); raw != "" {
				triple, err := libversion.Parse(raw)
				if err != nil {
					return err
				}
				b = block.FromTriple(runtime.name, triple)
			} else {
				loaded, err := runtime.loadVerifiedBlock()
				if err != nil {
					return err
				}
				b = loaded.block
			}

			var buf bytes.Buffer
			lang := strings.ToLower(strings.TrimSpace(flags.lang.Value(runtime.resolver)))
			switch lang {
			case langC:
				err = block.RenderHeader(&buf, b, block.HeaderOptions{
					Prefix: runtime.prefix,
					Banner: flags.banner.Value(runtime.resolver),
				})
			case langGo:
				err = block.RenderGo(&buf, b, block.GoOptions{Package: flags.pkg.Value(runtime.resolver)})
			default:
				err = fmt.Errorf("invalid lang %q", lang)
			}
			if err != nil {
				return err
			}

			output := strings.TrimSpace(flags.output.Value(runtime.resolver))
			runtime.logger.Debug("rendered block",
				zap.String("lang", lang),
				zap.String("version", b.Version),
				zap.String("output", output),
			)
			return writeOutput(cmd.OutOrStdout(), output, buf.Bytes(), defaultOutputMode)
		},
	}

	fs := cmd.Flags()
	flags = renderFlagSet{
		lang:    bindStringFlag(fs, "lang", "lang", "l", envLang, langC, "Output language (c or go)"),
		version: bindStringFlag(fs, "version", "version", "", envVersion, "", "Version to render (default: the loaded block)"),
		pkg:     bindStringFlag(fs, "package", "package", "", envPackage, defaultGoPackage, "Go package name for --lang go"),
		output:  bindStringFlag(fs, "output", "output", "O", envOutput, "", "File to write (default: stdout)"),
		banner:  bindStringSliceFlag(fs, "banner", "banner", "", envBanner, nil, "Comment lines placed above the C header"),
	}

	return cmd
}

const defaultOutputMode os.FileMode = 0o644

func writeOutput(stdout io.Writer, path string, data []byte, perm os.FileMode) error {
	if path == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}
	if err := replaceFile(path, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// replaceFile writes data to a temporary file next to path and renames it
// into place with mode perm.
func replaceFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func newBumpCommand(rootFlags *rootFlagSet) *cobra.Command {
	var bumpFlag *stringFlag
	var writeFlag *boolFlag

	cmd := &cobra.Command{
		Use:   "bump",
		Short: "Compute the next metadata block and optionally rewrite the header",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			write, err := writeFlag.Value(runtime.resolver)
			if err != nil {
				return err
			}
			if write && runtime.header == "" {
				return fmt.Errorf("--write needs a header (set %s or --%s)", envHeader, flagHeader)
			}

			loaded, err := runtime.loadVerifiedBlock()
			if err != nil {
				return err
			}

			nextTriple, err := bump.Apply(loaded.block.Triple(), intent)
			if err != nil {
				return err
			}
			next := block.FromTriple(loaded.block.Name, nextTriple)

			log := runtime.logger.With(
				zap.String("bump", intent.String()),
				zap.String("from", loaded.block.Version),
				zap.String("to", next.Version),
				zap.String("macro", next.Macro),
			)

			if !write {
				log.Debug("bump computed")
				return writeBlock(cmd.OutOrStdout(), next, formatText)
			}

			info, err := os.Stat(runtime.header)
			if err != nil {
				return fmt.Errorf("reading header: %w", err)
			}
			src, err := os.ReadFile(runtime.header)
			if err != nil {
				return fmt.Errorf("reading header: %w", err)
			}
			updated, err := block.RewriteHeader(src, runtime.prefix, next)
			if err != nil {
				return fmt.Errorf("rewriting %s: %w", runtime.header, err)
			}
			if err := writeOutput(cmd.OutOrStdout(), runtime.header, updated, info.Mode().Perm()); err != nil {
				return err
			}

			log.Info("header updated", zap.String("header", runtime.header))
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), next.Version); err != nil {
				return fmt.Errorf("writing bump result: %w", err)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	bumpFlag = bindStringFlag(fs, flagBump, flagBump, "", envBump, "", "Increment to apply (major, minor or revision)")
	writeFlag = bindBoolFlag(fs, "write", "write", "w", envWrite, false, "Rewrite the header file in place")

	return cmd
}
