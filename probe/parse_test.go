package probe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		sources string
		cp      string
		options string
	}{
		{
			name:    "typical",
			sources: "/w/core/src/main/scala/A.scala /w/core/src/main/scala/B.scala",
			cp:      "/home/u/.ivy2/cache/scala-library.jar:/w/util/target/classes",
			options: "-deprecation -feature -Xlint",
		},
		{
			name:    "single source no options",
			sources: "/w/A.scala",
			cp:      "/lib/a.jar",
			options: "",
		},
		{
			name:    "padded lines",
			sources: "  /w/A.scala /w/B.scala ",
			cp:      " /lib/a.jar:/lib/b.jar\t",
			options: " -optimise ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.sources + "\n" + tt.cp + "\n" + tt.options + "\n"
			md, err := Parse([]byte(data))
			require.NoError(t, err)

			require.Equal(t, strings.TrimSpace(tt.sources), strings.Join(md.Sources, " "))
			require.Equal(t, strings.TrimSpace(tt.cp), md.Classpath)
			require.Equal(t, strings.TrimSpace(tt.options), strings.Join(md.Options, " "))
		})
	}
}

func TestParse_Fields(t *testing.T) {
	md, err := Parse([]byte("/a/A.scala /a/B.scala\r\n/lib/x.jar:/lib/y.jar\r\n-deprecation -Xfatal-warnings\r\n"))
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"/a/A.scala", "/a/B.scala"}, md.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "/lib/x.jar:/lib/y.jar", md.Classpath)
	if diff := cmp.Diff([]string{"-deprecation", "-Xfatal-warnings"}, md.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_UnterminatedLastLine(t *testing.T) {
	md, err := Parse([]byte("/a/A.scala\n/lib/x.jar\n-feature"))
	require.NoError(t, err)
	require.Equal(t, []string{"-feature"}, md.Options)
}

func TestParse_EmptyLines(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "no options", data: "/a/A.scala\n/lib/x.jar\n\n", want: "/lib/x.jar"},
		{name: "no classpath no options", data: "/a/A.scala\n\n\n"},
		{name: "no options crlf", data: "/a/A.scala\r\n/lib/x.jar\r\n\r\n", want: "/lib/x.jar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := Parse([]byte(tt.data))
			require.NoError(t, err)
			require.Equal(t, []string{"/a/A.scala"}, md.Sources)
			require.Equal(t, tt.want, md.Classpath)
			require.Empty(t, md.Options)
		})
	}
}

func TestParse_EmptyOptionsLine(t *testing.T) {
	md, err := Parse([]byte("/a/A.scala\n/lib/x.jar\n\n"))
	require.NoError(t, err)
	require.Empty(t, md.Options)
	require.Equal(t, []string{"/a/A.scala"}, md.Sources)
}

func TestParse_WrongLineCount(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "one line", data: "/a/A.scala"},
		{name: "two lines", data: "/a/A.scala\n/lib/x.jar"},
		{name: "two lines trailing newline", data: "/a/A.scala\n/lib/x.jar\n"},
		{name: "four lines", data: "[info] resolving\n/a/A.scala\n/lib/x.jar\n-feature"},
		{name: "extra blank lines", data: "/a/A.scala\n/lib/x.jar\n-feature\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := Parse([]byte(tt.data))
			require.ErrorIs(t, err, ErrOutputFormat)
			require.Empty(t, md.Sources)
			require.Empty(t, md.Classpath)
			require.Empty(t, md.Options)
		})
	}
}
