package diagnostic

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder(slog.LevelInfo)
	logger := slog.New(rec).With(slog.String(BindingKey, "b1"))

	logger.Debug("too quiet", slog.String(CodeKey, "ignored"))
	logger.Info("no code")
	logger.Info("excess values", slog.String(CodeKey, CodeConvertBackExcess), slog.String(PathKey, "Text"))
	logger.Error("broken", slog.String(CodeKey, CodeTargetPath))

	d := rec.Diagnostics()
	require.Len(t, d.Infos, 1)
	require.Len(t, d.Errors, 1)

	assert.Equal(t, Diagnostic{
		Severity: SeverityInfo,
		Code:     CodeConvertBackExcess,
		Message:  "excess values",
		Binding:  "b1",
		Path:     "Text",
	}, d.Infos[0])
	assert.Equal(t, []string{CodeTargetPath, CodeConvertBackExcess}, d.Codes())
	assert.True(t, d.HasErrors())
	assert.EqualError(t, d.Error(), "[b1]: [target-path] broken")

	rec.Reset()
	assert.Empty(t, rec.Diagnostics().All())
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics
	a.AddWarning("w", "warn", "", "")
	b.AddInfo("i", "info", "", "Name")
	b.AddError("e", "err", "x", "")

	a.Merge(b)

	assert.Len(t, a.All(), 3)
	assert.False(t, a.IsValid())
	assert.Equal(t, "Name: [i] info", a.Infos[0].String())
	assert.Equal(t, "warning", SeverityWarning.String())
}
