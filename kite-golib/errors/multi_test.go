package errors

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombineNil(t *testing.T) {
	err := New("error")
	require.Equal(t, err, Combine(err, nil))
	require.Equal(t, err, Combine(nil, err))
	require.NoError(t, Combine(nil, nil))
}

func TestCombineFlattens(t *testing.T) {
	err0 := New("error0")
	err1 := New("error1")
	err2 := New("error2")

	errs := Combine(Combine(err0, err1), err2).(Errors)
	require.Len(t, errs, 3)
	require.Equal(t, err0, errs[0])
	require.Equal(t, err2, errs[2])
	require.Equal(t, "error0\nerror1\nerror2", errs.Error())
}

func TestCombineIs(t *testing.T) {
	err := Combine(New("read failed"), WrapfOrNil(io.EOF, "closing"))
	require.True(t, Is(err, io.EOF))
	require.False(t, Is(err, io.ErrClosedPipe))
}

func TestDefer(t *testing.T) {
	run := func(closeErr error) (err error) {
		defer Defer(&err, func() error { return closeErr })
		return nil
	}
	require.NoError(t, run(nil))
	require.Equal(t, io.ErrUnexpectedEOF, run(io.ErrUnexpectedEOF))
}

func TestWrapf(t *testing.T) {
	require.Nil(t, WrapfOrNil(nil, "nothing"))
	require.EqualError(t, Wrapf(nil, "missing %s", "file"), "missing file")

	err := Wrapf(io.EOF, "reading %s", "corpus")
	require.EqualError(t, err, "reading corpus: EOF")
	require.Equal(t, io.EOF, Cause(err))
	require.True(t, Is(err, io.EOF))
}
