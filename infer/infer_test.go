package infer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidgraph/symbolic/enginerr"
	"github.com/lucidgraph/symbolic/graphdesc"
	"github.com/lucidgraph/symbolic/infer"
	"github.com/lucidgraph/symbolic/internal/testutil"
)

func mustDoc(t *testing.T, js string) *graphdesc.Document {
	return testutil.MustDecode(t, js)
}

func TestRun_AcyclicChain_Succeeds(t *testing.T) {
	doc := mustDoc(t, `{
	  "name": "Model",
	  "submodels": {"r1": {"name": "Relu"}, "r2": {"name": "Sigmoid"}},
	  "connections": {
	    "r1": {"input": "x"},
	    "r2": {"input": {"connect": [["r1", "output"]]}, "output": "y"}
	  },
	  "exposed_keys": ["x", "y"]
	}`)

	res, err := infer.Run(doc)
	require.NoError(t, err)
	assert.Len(t, res.Graph.Vertices, 2)
}

func TestRun_DirectCycle_IsError(t *testing.T) {
	doc := mustDoc(t, `{
	  "name": "Model",
	  "submodels": {"r1": {"name": "Relu"}, "r2": {"name": "Sigmoid"}},
	  "connections": {
	    "r1": {"input": {"connect": [["r2", "output"]]}},
	    "r2": {"input": {"connect": [["r1", "output"]]}}
	  }
	}`)

	_, err := infer.Run(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrCycle))
}

func TestRun_SelfLoop_IsError(t *testing.T) {
	doc := mustDoc(t, `{
	  "name": "Model",
	  "submodels": {"r1": {"name": "Add"}},
	  "connections": {
	    "r1": {"left": {"connect": [["r1", "output"]]}, "right": "x"}
	  }
	}`)

	_, err := infer.Run(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrCycle))
}

func TestRun_CycleThroughComposite_IsDetected(t *testing.T) {
	doc := mustDoc(t, `{
	  "name": "Model",
	  "submodels": {
	    "block": {
	      "name": "Model",
	      "submodels": {"r": {"name": "Relu"}},
	      "connections": {"r": {"input": "in", "output": "out"}},
	      "exposed_keys": ["in", "out"]
	    },
	    "s": {"name": "Sigmoid"}
	  },
	  "connections": {
	    "block": {"in": {"connect": [["s", "output"]]}},
	    "s": {"input": {"connect": [["block", "out"]]}}
	  }
	}`)

	_, err := infer.Run(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrCycle))
}

func TestRun_NestedComposite_CycleInsideIsDetected(t *testing.T) {
	doc := mustDoc(t, `{
	  "name": "Model",
	  "submodels": {
	    "block": {
	      "name": "Model",
	      "submodels": {"a": {"name": "Relu"}, "b": {"name": "Sigmoid"}},
	      "connections": {
	        "a": {"input": {"connect": [["b", "output"]]}},
	        "b": {"input": {"connect": [["a", "output"]]}}
	      },
	      "exposed_keys": []
	    }
	  },
	  "connections": {}
	}`)

	_, err := infer.Run(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, enginerr.ErrCycle))
}
