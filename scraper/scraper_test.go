package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carscout/utils"
)

func TestExtractorForKnownSites(t *testing.T) {
	reg := NewRegistry(utils.NewLogger())

	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.olx.ro/d/oferta/dacia.html", true},
		{"https://www.storia.ro/ro/oferta/apartament.html", true},
		{"https://www.autovit.ro/anunt/bmw-ID123.html", true},
		{"https://www.example.com/listing/1", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, ok := reg.ExtractorFor(tt.url)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestExtractDetailUnknownDomainYieldsEmptyDetail(t *testing.T) {
	reg := NewRegistry(utils.NewLogger())

	detail, err := reg.ExtractDetail("https://www.example.com/listing/1", nil)
	require.NoError(t, err)
	assert.Equal(t, "", detail.Description)
	assert.Empty(t, detail.Parameters)
	assert.NotNil(t, detail.Parameters)
}
