package execution

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	testCases := []struct {
		in        string
		want      Type
		expectErr bool
	}{
		{in: "", want: Pipeline},
		{in: "pipeline", want: Pipeline},
		{in: " Orchestration ", want: Orchestration},
		{in: "batch", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseType(tc.in)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew_AssignsUUID(t *testing.T) {
	e := New("deploy", Pipeline, nil)
	_, err := uuid.Parse(e.ID())
	require.NoError(t, err)
	assert.Equal(t, "deploy", e.Name())
	assert.NotEqual(t, e.ID(), New("deploy", Pipeline, nil).ID())
}

func TestTrigger_PipelineOnly(t *testing.T) {
	trigger := map[string]any{"region": "eu-west-1"}

	p := New("p", Pipeline, trigger)
	v, ok := p.Trigger().Lookup("region")
	require.True(t, ok)
	assert.Equal(t, "eu-west-1", v)

	o := New("o", Orchestration, trigger)
	_, ok = o.Trigger().Lookup("region")
	assert.False(t, ok)
}

func TestTrigger_IsCopied(t *testing.T) {
	trigger := map[string]any{"region": "eu-west-1"}
	e := NewWithID("run-1", "p", Pipeline, trigger)
	trigger["region"] = "changed"

	v, _ := e.Trigger().Lookup("region")
	assert.Equal(t, "eu-west-1", v)
	assert.Equal(t, "run-1", e.ID())
}
