package serializr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Completion state machine: Open / Settled-ok / Settled-error / Stuck
// =============================================================================

func TestContext_SettlesOkOnceAllCallbacksFire(t *testing.T) {
	var gotErr error
	var gotVal any
	fired := 0

	root := NewRootContext(nil, nil, func(err error, value any) {
		fired++
		gotErr, gotVal = err, value
	}, nil)
	root.Target = "done-value"

	cb1 := root.CreateCallback(func(any) {})
	cb2 := root.CreateCallback(func(any) {})

	cb1(nil, "a")
	assert.Equal(t, 0, fired, "must not settle while a callback is still outstanding")

	cb2(nil, "b")
	require.Equal(t, 1, fired)
	assert.NoError(t, gotErr)
	assert.Equal(t, "done-value", gotVal)
}

func TestContext_SettlesWithErrorOnCallbackFailure(t *testing.T) {
	var gotErr error
	fired := 0

	root := NewRootContext(nil, nil, func(err error, _ any) {
		fired++
		gotErr = err
	}, nil)

	cb1 := root.CreateCallback(func(any) {})
	cb2 := root.CreateCallback(func(any) {})

	cb1(ErrNotPrimitive, nil)
	require.Equal(t, 1, fired)
	assert.ErrorIs(t, gotErr, ErrNotPrimitive)

	// A second callback firing after settlement must not re-trigger onReady.
	cb2(nil, "ignored")
	assert.Equal(t, 1, fired)
}

func TestContext_StuckWhenReferenceNeverResolves(t *testing.T) {
	var gotErr error
	fired := 0

	root := NewRootContext(nil, nil, func(err error, _ any) {
		fired++
		gotErr = err
	}, nil)

	awaiter := CreateSimpleSchema(Props{})
	cb := root.CreateCallback(func(any) {})
	refCb := root.CreateCallback(func(any) {})

	root.Await(awaiter, "missing-id", refCb)

	cb(nil, nil) // the only other real callback completes, leaving one pending ref
	require.Equal(t, 1, fired)
	assert.ErrorIs(t, gotErr, ErrUnresolvedReferences)
}

func TestContext_AwaitResolvesAcrossSiblingSubtrees(t *testing.T) {
	schema := CreateSimpleSchema(Props{})
	root := NewRootContext(nil, schema, func(error, any) {}, nil)

	var resolved any
	lock := root.CreateCallback(func(any) {})

	awaitDone := root.CreateCallback(func(v any) { resolved = v })
	root.Await(schema, "id-1", awaitDone)

	publishDone := root.CreateCallback(func(any) {})
	root.Resolve(schema, "id-1", "the-target")
	publishDone(nil, nil)

	lock(nil, nil)

	assert.Equal(t, "the-target", resolved)
}

func TestContext_AwaitMatchesImmediatelyIfAlreadyResolved(t *testing.T) {
	schema := CreateSimpleSchema(Props{})
	root := NewRootContext(nil, schema, func(error, any) {}, nil)

	root.Resolve(schema, "id-1", "already-here")

	var got any
	root.Await(schema, "id-1", func(err error, v any) {
		got = v
	})
	assert.Equal(t, "already-here", got)
}

func TestContext_AwaitPanicsOnNonRoot(t *testing.T) {
	root := NewRootContext(nil, nil, func(error, any) {}, nil)
	child := NewChildContext(root, nil, nil)

	assert.Panics(t, func() {
		child.Await(nil, "x", func(error, any) {})
	})
}

func TestContext_CallbackPanicsOnSecondFire(t *testing.T) {
	root := NewRootContext(nil, nil, func(error, any) {}, nil)
	cb := root.CreateCallback(func(any) {})

	cb(nil, "once")
	assert.PanicsWithValue(t, ErrCallbackAlreadyFired, func() {
		cb(nil, "twice")
	})
}

// contextLifecycleSuite walks the completion state machine end to end:
// Open, Settled-ok, Settled-error, and Stuck (which transitions straight to
// Settled-error with the unresolvable-references message).
type contextLifecycleSuite struct {
	suite.Suite

	completions []error
	root        *Context
}

func (s *contextLifecycleSuite) SetupTest() {
	s.completions = nil
	s.root = NewRootContext(nil, nil, func(err error, _ any) {
		s.completions = append(s.completions, err)
	}, nil)
}

func (s *contextLifecycleSuite) TestOpenToSettledOk() {
	cb := s.root.CreateCallback(func(any) {})
	s.Empty(s.completions, "open context must not have completed")

	cb(nil, nil)
	s.Require().Len(s.completions, 1)
	s.NoError(s.completions[0])
}

func (s *contextLifecycleSuite) TestOpenToStuckToSettledError() {
	schema := CreateSimpleSchema(Props{})
	refCb := s.root.CreateCallback(func(any) {})
	s.root.Await(schema, 99, refCb)

	other := s.root.CreateCallback(func(any) {})
	other(nil, nil)

	s.Require().Len(s.completions, 1)
	s.ErrorIs(s.completions[0], ErrUnresolvedReferences)
	s.Contains(s.completions[0].Error(), "99")
}

func (s *contextLifecycleSuite) TestSettledErrorAbsorbsLaterCallbacks() {
	cb1 := s.root.CreateCallback(func(any) {})
	cb2 := s.root.CreateCallback(func(any) {})

	cb1(ErrNotObject, nil)
	cb2(ErrNotPrimitive, nil)

	s.Require().Len(s.completions, 1)
	s.ErrorIs(s.completions[0], ErrNotObject)
}

func TestContextLifecycle(t *testing.T) {
	suite.Run(t, new(contextLifecycleSuite))
}
