package x86

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minijavac/internal/ir"
)

func TestIsPhysicalDistinguishesVirtualRegisters(t *testing.T) {
	require.True(t, EAX.IsPhysical())
	require.True(t, ESP.IsPhysical())

	v := FromIdent(ir.NewIdent())
	require.False(t, v.IsPhysical())
}

func TestRegClassExposesSixGeneralPurposeRegisters(t *testing.T) {
	require.Len(t, RegClass.GeneralPurpose(), 6)
	require.Len(t, RegClass.Physical(), 8)
}

func TestFromIdentIsStableAndInjective(t *testing.T) {
	a, b := ir.NewIdent(), ir.NewIdent()
	require.NotEqual(t, FromIdent(a), FromIdent(b))
	require.Equal(t, FromIdent(a), FromIdent(a))
}
