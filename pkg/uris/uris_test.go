package uris

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{
			name: "absolute reference wins",
			base: "file:///app/main.lib.yaml",
			ref:  "dart:math",
			want: "dart:math",
		},
		{
			name: "sibling file",
			base: "file:///app/main.lib.yaml",
			ref:  "util.lib.yaml",
			want: "file:///app/util.lib.yaml",
		},
		{
			name: "parent directory",
			base: "file:///app/src/main.lib.yaml",
			ref:  "../shared.lib.yaml",
			want: "file:///app/shared.lib.yaml",
		},
		{
			name: "opaque base sibling",
			base: "dart:core",
			ref:  "num.lib.yaml",
			want: "dart:num.lib.yaml",
		},
		{
			name: "opaque base with directory",
			base: "dart:core/core.lib.yaml",
			ref:  "int.lib.yaml",
			want: "dart:core/int.lib.yaml",
		},
		{
			name: "no usable base",
			base: "",
			ref:  "lib.yaml",
			want: "lib.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name      string
		ref       string
		wantIndex int
	}{
		{name: "empty", ref: "", wantIndex: 0},
		{name: "space", ref: "a b.yaml", wantIndex: 1},
		{name: "angle bracket", ref: "<uri>", wantIndex: 0},
		{name: "backslash", ref: "lib\\util.yaml", wantIndex: 3},
		{name: "control character", ref: "lib\x01.yaml", wantIndex: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve("file:///app/main.lib.yaml", tt.ref)
			require.Error(t, err)

			var invalid *InvalidError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.wantIndex, invalid.Index)
			assert.Equal(t, tt.ref, invalid.Text)

			// The sentinel still round-trips the offending text.
			assert.True(t, IsSentinel(got))
			assert.Equal(t, tt.ref, SentinelText(got))
		})
	}
}

func TestResolvePartProtectedScheme(t *testing.T) {
	t.Run("relative part stays in origin", func(t *testing.T) {
		got, err := ResolvePart("dart:core/core.lib.yaml", "int.lib.yaml")
		require.NoError(t, err)
		assert.Equal(t, "dart:core/int.lib.yaml", got)
	})

	t.Run("scheme carrying part rejected", func(t *testing.T) {
		got, err := ResolvePart("dart:core", "file:///etc/part.yaml")
		require.Error(t, err)
		assert.True(t, IsSentinel(got))
	})

	t.Run("rooted part rejected", func(t *testing.T) {
		_, err := ResolvePart("dart:core", "/part.yaml")
		require.Error(t, err)
	})

	t.Run("unprotected scheme resolves normally", func(t *testing.T) {
		got, err := ResolvePart("file:///app/main.lib.yaml", "part.lib.yaml")
		require.NoError(t, err)
		assert.Equal(t, "file:///app/part.lib.yaml", got)
	})
}

func TestNative(t *testing.T) {
	assert.True(t, IsNative("dart-ext:libfoo"))
	assert.False(t, IsNative("dart:core"))
	assert.Equal(t, "libfoo", NativePath("dart-ext:libfoo"))
}

func TestSentinelNonSentinelText(t *testing.T) {
	assert.Equal(t, "", SentinelText("dart:core"))
}

func TestSelectURI(t *testing.T) {
	supported := func(name string) bool { return name == "io" }

	tests := []struct {
		name       string
		conditions []Condition
		want       string
	}{
		{
			name: "no conditions keeps nominal",
			want: "nominal.yaml",
		},
		{
			name: "supported library matches implicit true",
			conditions: []Condition{
				{DottedName: "dart.library.io", URI: "io.yaml"},
			},
			want: "io.yaml",
		},
		{
			name: "supported library matches explicit true",
			conditions: []Condition{
				{DottedName: "dart.library.io", Value: "true", URI: "io.yaml"},
			},
			want: "io.yaml",
		},
		{
			name: "unsupported library falls through",
			conditions: []Condition{
				{DottedName: "dart.library.html", URI: "html.yaml"},
			},
			want: "nominal.yaml",
		},
		{
			name: "expected false never matches",
			conditions: []Condition{
				{DottedName: "dart.library.html", Value: "false", URI: "nohtml.yaml"},
			},
			want: "nominal.yaml",
		},
		{
			name: "expected false never matches even when supported",
			conditions: []Condition{
				{DottedName: "dart.library.io", Value: "false", URI: "noio.yaml"},
			},
			want: "nominal.yaml",
		},
		{
			name: "name outside the library namespace evaluates empty",
			conditions: []Condition{
				{DottedName: "dart.platform.io", URI: "platform.yaml"},
			},
			want: "nominal.yaml",
		},
		{
			name: "first matching condition wins",
			conditions: []Condition{
				{DottedName: "dart.library.html", URI: "html.yaml"},
				{DottedName: "dart.library.io", URI: "io.yaml"},
				{DottedName: "dart.library.io", URI: "io2.yaml"},
			},
			want: "io.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectURI("nominal.yaml", tt.conditions, supported)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectURINilSupport(t *testing.T) {
	conditions := []Condition{{DottedName: "dart.library.io", URI: "io.yaml"}}
	assert.Equal(t, "nominal.yaml", SelectURI("nominal.yaml", conditions, nil))
}
