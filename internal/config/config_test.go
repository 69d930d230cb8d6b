package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "grid", cfg.Plan.Source)
	assert.Equal(t, "Daily PVS", cfg.Plan.Sheet)
	assert.Equal(t, "Target (LTP input)", cfg.Plan.TargetLabel)
	assert.Equal(t, 2, cfg.Plan.LabelColumn)
	assert.Equal(t, 5, cfg.Plan.Workdays)
	assert.Equal(t, "config/line_reference.csv", cfg.Refmap.Path)
	assert.Equal(t, []string{"RCT-WO", "rct-wo"}, cfg.Actuals.TransactionTypes)
	assert.Equal(t, 30*time.Second, cfg.Actuals.QueryTimeout())
	assert.InDelta(t, 300, cfg.Report.Clamp, 0.001)
	assert.Equal(t, []string{"sunday", "monday"}, cfg.Report.WeekendView)
	assert.Equal(t, "pvs_snapshots.db", cfg.Store.DSN)
	assert.Equal(t, 25, cfg.Email.Port)
	assert.Equal(t, "PLANING", cfg.Extract.Sheet)
	assert.Equal(t, []string{"CW", "LTP"}, cfg.Extract.FilenameTokens)
	assert.Equal(t, 5051, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
plan:
  source: csv
  location: ftp://server/plans/plan.csv
  windows1250: true
actuals:
  database_url: postgres://qad:secret@db/prod
report:
  clamp: 200
  weekend_view: [saturday, sunday]
email:
  host: smtp.example.com
  recipients: [ops@example.com]
server:
  port: 9090
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Plan.Source)
	assert.Equal(t, "ftp://server/plans/plan.csv", cfg.Plan.Location)
	assert.True(t, cfg.Plan.Windows1250)
	assert.Equal(t, "postgres://qad:secret@db/prod", cfg.Actuals.DatabaseURL)
	assert.InDelta(t, 200, cfg.Report.Clamp, 0.001)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.Report.Weekdays())
	assert.Equal(t, "smtp.example.com", cfg.Email.Host)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Email.Recipients)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "Target (LTP input)", cfg.Plan.TargetLabel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("PVS_SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestWeekdaysSkipsUnknownNames(t *testing.T) {
	c := ReportConfig{WeekendView: []string{"Sunday", " monday ", "someday"}}
	assert.Equal(t, []time.Weekday{time.Sunday, time.Monday}, c.Weekdays())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
