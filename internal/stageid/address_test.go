package stageid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name        string
		addr        *Address
		expectedStr string
	}{
		{
			name:        "simple path",
			addr:        &Address{Path: []PathSegment{NewPathSegment("a"), NewPathSegment("b")}},
			expectedStr: "a.b",
		},
		{
			name:        "path with indices",
			addr:        &Address{Path: []PathSegment{NewPathSegment("deploy"), NewPathSegmentWithIndex("region", 0), NewPathSegmentWithIndex("check", 15)}},
			expectedStr: "deploy.region[0].check[15]",
		},
		{
			name:        "nil address",
			addr:        nil,
			expectedStr: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.addr.String())
		})
	}
}

func TestAddress_RoundTrip(t *testing.T) {
	for _, id := range []string{"a.b.c", "deploy.region[0].check[15]", "bake-ami[0]"} {
		t.Run(id, func(t *testing.T) {
			addr, err := Parse(id)
			require.NoError(t, err)
			assert.Equal(t, id, addr.String())

			again, err := Parse(addr.String())
			require.NoError(t, err)
			assert.True(t, addr.Equal(again))
		})
	}
}

func TestAddress_Name(t *testing.T) {
	assert.Equal(t, "verify", MustParse("canary.region[2].verify").Name())
	assert.Equal(t, "region", MustParse("canary.region[2]").Name())
	assert.Equal(t, "", (*Address)(nil).Name())
}

func TestAddress_Equal(t *testing.T) {
	addr1 := MustParse("a.b[0]")
	addr2 := MustParse("a.b[0]")
	addr3 := MustParse("a.b[1]")
	addr4 := MustParse("a.c[0]")

	assert.True(t, addr1.Equal(addr2))
	assert.False(t, addr1.Equal(addr3))
	assert.False(t, addr1.Equal(addr4))
	assert.False(t, addr1.Equal(nil))
	assert.False(t, (*Address)(nil).Equal(addr1))
	assert.True(t, (*Address)(nil).Equal(nil))
}
