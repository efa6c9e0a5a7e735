package fail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/stagegrid/internal/stagecontext"
)

func TestOnRunFail(t *testing.T) {
	_, err := OnRunFail(context.Background(), stagecontext.NewWithLocal(nil, map[string]any{"message": "boom"}))
	assert.EqualError(t, err, "boom")

	_, err = OnRunFail(context.Background(), stagecontext.New(nil))
	assert.EqualError(t, err, "stage failed")
}
