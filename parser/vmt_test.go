package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVMT(t *testing.T) {
	doc := ParseVMT(`"LightmappedGeneric"
{
	"$basetexture" "metal/floor"
	$bumpmap metal\floor_normal.vtf // normal map
	"%keywords" "industrial"
	"$BaseTexture2" "metal/floor2"  $detail "detail/noise"
}
`)

	assert.Equal(t, []string{"metal/floor"}, doc.Get("basetexture"))
	assert.Equal(t, []string{`metal\floor_normal.vtf`}, doc.Get("BUMPMAP"))
	assert.Equal(t, []string{"industrial"}, doc.Get("keywords"))
	assert.Equal(t, []string{"metal/floor2"}, doc.Get("basetexture2"))
	assert.Equal(t, []string{"detail/noise"}, doc.Get("detail"))
	assert.Nil(t, doc.Get("lightmappedgeneric"))
}

func TestParseVMTRepeatedKeys(t *testing.T) {
	doc := ParseVMT("$envmap env/a\r\n$envmap env/b\r\n")
	assert.Equal(t, []string{"env/a", "env/b"}, doc.Get("envmap"))
}

func TestParseVMTGarbage(t *testing.T) {
	require.NotPanics(t, func() {
		assert.Empty(t, ParseVMT(""))
		assert.Empty(t, ParseVMT("\x00\x01\x02 not a material {{{"))
		assert.Empty(t, ParseVMT(`"$basetexture" ""`))
	})
}
