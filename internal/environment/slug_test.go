package environment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugifyNormalizes(t *testing.T) {
	cases := map[string]string{
		"Nightly Backup":     "nightly-backup",
		"  Weird!!  Name  ":  "weird-name",
		"Already-Slugged":    "already-slugged",
		"日本語only":           "script",
		"---":                "script",
		"Multi   Space  Run": "multi-space-run",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugifyIsIdempotent(t *testing.T) {
	in := "Some Name With Spaces & Stuff!"
	once := Slugify(in)
	twice := Slugify(once)
	require.Equal(t, once, twice)
}
