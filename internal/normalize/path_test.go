package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoveDotSegments(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/a/b/c/./../../g", "/a/g"},
		{"mid/content=5/../6", "mid/6"},
		{"./one", "one"},
		{"../one", "one"},
		{".", ""},
		{"..", ""},
		{"one/.", "one"},
		{"one/..", ""},
		{"one/../", ""},
		{"/../../../images.gif", "/images.gif"},
		{"/plain/path", "/plain/path"},
		{"/a//b/./c", "/a//b/c"},
		{"", ""},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			require.Equal(t, c.want, RemoveDotSegments(c.in))
		})
	}
}
