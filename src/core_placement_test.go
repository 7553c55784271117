package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDestination(t *testing.T) {
	date := time.Date(2023, time.June, 15, 10, 30, 0, 0, time.Local)

	tests := []struct {
		name   string
		suffix string
		layout Layout
		want   string
	}{
		{"month suffix", "Misc", LayoutMonthSuffix, filepath.Join("/dest", "2023", "06 - Jun - Misc")},
		{"custom suffix", "Holiday", LayoutMonthSuffix, filepath.Join("/dest", "2023", "06 - Jun - Holiday")},
		{"empty suffix defaults", "  ", LayoutMonthSuffix, filepath.Join("/dest", "2023", "06 - Jun - Misc")},
		{"separator in suffix", "Trips/Spain", LayoutMonthSuffix, filepath.Join("/dest", "2023", "06 - Jun - Trips_Spain")},
		{"year month", "Misc", LayoutYearMonth, filepath.Join("/dest", "2023-06")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveDestination("/dest", date, tt.suffix, tt.layout))
		})
	}
}

func TestDeriveDestinationIsPure(t *testing.T) {
	date := time.Date(2001, time.January, 2, 0, 0, 0, 0, time.Local)
	first := DeriveDestination("/library", date, "Misc", LayoutMonthSuffix)
	second := DeriveDestination("/library", date, "Misc", LayoutMonthSuffix)

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join("/library", "2001", "01 - Jan - Misc"), first)
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("2023/06")
	require.NoError(t, err)
	assert.Equal(t, Bucket{Year: 2023, Month: time.June}, b)

	b, err = ParseBucket(" 2024-1 ")
	require.NoError(t, err)
	assert.Equal(t, Bucket{Year: 2024, Month: time.January}, b)

	for _, bad := range []string{"", "2023", "23/06", "2023/13", "2023/00", "2023/ab", "2023/06/01"} {
		_, err := ParseBucket(bad)
		assert.Error(t, err, bad)
	}
}

func TestBucketOrdering(t *testing.T) {
	a := Bucket{Year: 2022, Month: time.December}
	b := Bucket{Year: 2023, Month: time.January}
	c := Bucket{Year: 2023, Month: time.March}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
	assert.False(t, b.Before(b))
	assert.Equal(t, "2023/01", b.String())
}
