// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/equity-engine/pkg/types"
)

func TestDefaultRegistryExecutors(t *testing.T) {
	reg := DefaultRegistry()

	static, err := reg.Get(types.WorkflowStatic)
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowStatic, static.Type())

	agentic, err := reg.Get(types.WorkflowAgentic)
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowAgentic, agentic.Type())
}

func TestRegistryUnknownWorkflow(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Get(types.WorkflowType("montecarlo"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedWorkflow))
	assert.Contains(t, err.Error(), "montecarlo")
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewStatic())
	reg.Register(NewStatic())

	e, err := reg.Get(types.WorkflowStatic)
	require.NoError(t, err)
	assert.NotNil(t, e)
}
