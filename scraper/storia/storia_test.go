package storia

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carscout/utils"
)

type fakeRenderer struct {
	texts    map[string]string
	failWait bool
}

func (f *fakeRenderer) Navigate(string) error { return nil }
func (f *fakeRenderer) Reload() error         { return nil }

func (f *fakeRenderer) WaitVisible(string, time.Duration) error {
	if f.failWait {
		return errors.New("timeout")
	}
	return nil
}

func (f *fakeRenderer) Text(sel string) (string, error) {
	if t, ok := f.texts[sel]; ok {
		return t, nil
	}
	return "", errors.New("no element")
}

func (f *fakeRenderer) Attribute(string, string) (string, error) { return "", errors.New("no element") }
func (f *fakeRenderer) Click(string) error                       { return nil }
func (f *fakeRenderer) ExpandAll(string) (int, error)            { return 0, nil }
func (f *fakeRenderer) HTML() (string, error)                    { return "", nil }
func (f *fakeRenderer) Close()                                   {}

func TestExtractDetailReadsSpan(t *testing.T) {
	e := New(utils.NewLogger())
	r := &fakeRenderer{texts: map[string]string{
		`[data-cy="adPageAdDescription"] span`: "Apartament 3 camere, zona centrala.",
	}}

	detail, err := e.ExtractDetail("https://www.storia.ro/ro/oferta/apartament.html", r)
	require.NoError(t, err)

	assert.Equal(t, "Apartament 3 camere, zona centrala.", detail.Description)
	assert.Empty(t, detail.Parameters)
	assert.NotNil(t, detail.Parameters)
}

func TestExtractDetailContainerFallback(t *testing.T) {
	e := New(utils.NewLogger())

	// No span inside the description block; the container text is the
	// fallback.
	r := &fakeRenderer{texts: map[string]string{
		`[data-cy="adPageAdDescription"]`: "Casa de vanzare, teren 500mp.",
	}}

	detail, err := e.ExtractDetail("https://www.storia.ro/ro/oferta/casa.html", r)
	require.NoError(t, err)
	assert.Equal(t, "Casa de vanzare, teren 500mp.", detail.Description)
}

func TestExtractDetailNoDescriptionText(t *testing.T) {
	e := New(utils.NewLogger())
	r := &fakeRenderer{}

	detail, err := e.ExtractDetail("https://www.storia.ro/ro/oferta/casa.html", r)
	require.NoError(t, err)
	assert.Equal(t, "", detail.Description)
}

func TestExtractDetailDescriptionTimeout(t *testing.T) {
	e := New(utils.NewLogger())
	r := &fakeRenderer{failWait: true}

	_, err := e.ExtractDetail("https://www.storia.ro/ro/oferta/apartament.html", r)
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	e := New(utils.NewLogger())
	assert.True(t, e.Matches("https://www.storia.ro/ro/oferta/apartament.html"))
	assert.False(t, e.Matches("https://www.autovit.ro/anunt/bmw-ID123.html"))
}
