package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainRegistration(t *testing.T) {
	d := New("proc-a", &stubEngine{}, Config{})
	require.NoError(t, RegisterDomain(d))
	defer UnregisterDomain("proc-a")

	got, err := LookupDomain("proc-a")
	require.NoError(t, err)
	require.Same(t, d, got)

	dup := New("proc-a", &stubEngine{}, Config{})
	require.ErrorIs(t, RegisterDomain(dup), ErrDuplicateDomain)
}

func TestLookupUnknownDomain(t *testing.T) {
	_, err := LookupDomain("proc-missing")
	require.ErrorIs(t, err, ErrUnknownDomain)
}

func TestUnregisterFreesName(t *testing.T) {
	d := New("proc-b", &stubEngine{}, Config{})
	require.NoError(t, RegisterDomain(d))
	UnregisterDomain("proc-b")

	again := New("proc-b", &stubEngine{}, Config{})
	require.NoError(t, RegisterDomain(again))
	UnregisterDomain("proc-b")

	// Unknown names are ignored.
	UnregisterDomain("proc-b")
}
