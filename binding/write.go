package binding

import (
	"log/slog"
	"reflect"

	"github.com/sourcegraph/conc/panics"

	"databind/internal/diagnostic"
	"databind/primitive"
	"databind/property"
)

// write sets d on owner on the affinity context. It runs inline when the
// caller already is on the context and is posted otherwise; a posted write
// re-reads the owner when it runs. guard is raised while the setter runs so
// that the echo notification is not pushed back.
//
// write reports false when the value was rejected or an inline set failed.
// A posted write counts as delivered; its errors reach onErr later.
func write(cfg *config, guard *bool, owner any, d *property.Descriptor, indices []any, value any,
	onErr func(value any, err error),
) bool {
	if d.ReadOnly {
		onErr(value, &property.ReadOnlyError{Property: d.Name, Owner: reflect.TypeOf(owner)})
		return false
	}

	v, err := primitive.Coerce(value, d.PropertyType, cfg.categories)
	if err != nil {
		onErr(value, err)
		return false
	}

	ok := true

	ref := refOf(owner)

	run := func() {
		o, alive := ref.Value()
		if !alive {
			ok = false
			onErr(v, ErrCollected)

			return
		}

		if cur, err := d.GetValue(o, indices); err == nil && sameValue(cur, v) {
			return
		}

		*guard = true
		defer func() { *guard = false }()

		var (
			pc     panics.Catcher
			setErr error
		)

		pc.Try(func() { setErr = d.SetValue(o, v, indices) })

		if r := pc.Recovered(); r != nil {
			setErr = r.AsError()
		}

		if setErr != nil {
			ok = false
			onErr(v, setErr)
		}
	}

	if cfg.executor.InContext() {
		run()
		return ok
	}

	cfg.executor.Post(run)

	return true
}

func codeFor(status Status) string {
	switch status {
	case SourcePathError:
		return diagnostic.CodeSourcePath
	case TargetPathError:
		return diagnostic.CodeTargetPath
	case SourceUpdateError:
		return diagnostic.CodeSourceUpdate
	default:
		return diagnostic.CodeTargetUpdate
	}
}

func logFailure(logger *slog.Logger, status Status, targetPath property.Path, err error) {
	logger.Warn("binding failed",
		slog.String(diagnostic.CodeKey, codeFor(status)),
		slog.String(diagnostic.PathKey, targetPath.String()),
		slog.String("status", status.String()),
		slog.Any("error", err))
}

// defaultMode resolves Default from the target property metadata.
func defaultMode(chain *property.Chain) Mode {
	if chain == nil {
		return OneWay
	}

	d := chain.LeafDescriptor()
	if d == nil {
		return OneWay
	}

	owner, _ := chain.Object(chain.Len() - 1)
	if d.Metadata(reflect.TypeOf(owner)).BindsTwoWayByDefault {
		return TwoWay
	}

	return OneWay
}

// resolveTarget resolves a target path, which must name a property.
func resolveTarget(target any, path property.Path) (*property.Chain, error) {
	chain, err := property.Resolve(target, path)
	if err != nil {
		return nil, err
	}

	if chain.Len() == 0 {
		return nil, &property.PathError{Path: path.String(), Err: property.ErrEmptyPath}
	}

	return chain, nil
}
