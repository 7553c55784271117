package main

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2023-06-15")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.Equal(time.Date(2023, time.June, 15, 0, 0, 0, 0, time.Local)))

	for _, bad := range []string{"2023/06/15", "15-06-2023", "2023-02-30", "yesterday"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestValidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/src", "/dest")
	writePhoto(t, fs, "/file.jpg", "x", day(2023, time.June, 1))

	from, _ := ParseDate("2023-06-02")
	to, _ := ParseDate("2023-06-01")

	tests := []struct {
		name   string
		modify func(c *OrganizerConfig)
		want   error
	}{
		{"missing source", func(c *OrganizerConfig) { c.SourceDir = "/nope" }, ErrInvalidSource},
		{"empty source", func(c *OrganizerConfig) { c.SourceDir = "" }, ErrInvalidSource},
		{"source is a file", func(c *OrganizerConfig) { c.SourceDir = "/file.jpg" }, ErrInvalidSource},
		{"missing dest", func(c *OrganizerConfig) { c.DestDir = "/nope" }, ErrInvalidDestination},
		{"same directories", func(c *OrganizerConfig) { c.DestDir = "/src/" }, ErrSameDirectories},
		{"reversed range", func(c *OrganizerConfig) { c.From, c.To = from, to }, ErrInvalidDateRange},
		{"bad action", func(c *OrganizerConfig) { c.Action = "delete" }, ErrInvalidAction},
		{"bad layout", func(c *OrganizerConfig) { c.Layout = "flat" }, ErrInvalidLayout},
		{"bad collision", func(c *OrganizerConfig) { c.Collision = "skip" }, ErrInvalidCollision},
		{"nothing selected", func(c *OrganizerConfig) { c.Included = map[Bucket]bool{} }, ErrNothingSelected},
		{"all deselected", func(c *OrganizerConfig) {
			c.Included = map[Bucket]bool{{Year: 2023, Month: time.June}: false}
		}, ErrNothingSelected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig("/src", "/dest")
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(fs), tt.want)
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	fs := afero.NewMemMapFs()
	mkdirs(t, fs, "/src", "/dest")

	cfg := &OrganizerConfig{SourceDir: "/src", DestDir: "/dest", Action: "MOVE", Suffix: " "}
	require.NoError(t, cfg.Validate(fs))

	assert.Equal(t, ActionMove, cfg.Action)
	assert.Equal(t, LayoutMonthSuffix, cfg.Layout)
	assert.Equal(t, CollisionOverwrite, cfg.Collision)
	assert.Equal(t, "Misc", cfg.Suffix)
	assert.Equal(t, defaultExtensions(), cfg.Extensions)
}

func TestInRangeIsInclusiveByDay(t *testing.T) {
	from, _ := ParseDate("2023-06-15")
	to, _ := ParseDate("2023-06-15")
	cfg := &OrganizerConfig{From: from, To: to}

	assert.True(t, cfg.inRange(time.Date(2023, time.June, 15, 0, 0, 0, 0, time.Local)))
	assert.True(t, cfg.inRange(time.Date(2023, time.June, 15, 23, 59, 59, 0, time.Local)))
	assert.False(t, cfg.inRange(time.Date(2023, time.June, 14, 23, 59, 59, 0, time.Local)))
	assert.False(t, cfg.inRange(time.Date(2023, time.June, 16, 0, 0, 0, 0, time.Local)))

	open := &OrganizerConfig{}
	assert.True(t, open.inRange(time.Date(1990, time.January, 1, 0, 0, 0, 0, time.Local)))
}

func TestParseEnums(t *testing.T) {
	a, err := ParseAction("")
	require.NoError(t, err)
	assert.Equal(t, ActionCopy, a)

	l, err := ParseLayout(" Year-Month ")
	require.NoError(t, err)
	assert.Equal(t, LayoutYearMonth, l)

	c, err := ParseCollision("RENAME")
	require.NoError(t, err)
	assert.Equal(t, CollisionRename, c)
}
