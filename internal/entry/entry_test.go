package entry_test

import (
	"testing"
	"time"

	"github.com/serroba/namecdn/internal/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	t.Run("codes round trip", func(t *testing.T) {
		for _, k := range []entry.Kind{entry.KindURL, entry.KindFile} {
			got, err := entry.KindFromCode(k.Code())

			require.NoError(t, err)
			assert.Equal(t, k, got)
		}
	})

	t.Run("unknown code is corrupt", func(t *testing.T) {
		_, err := entry.KindFromCode(2)

		assert.ErrorIs(t, err, entry.ErrCorruptEntry)
	})

	t.Run("names", func(t *testing.T) {
		assert.Equal(t, "URL", entry.KindURL.String())
		assert.Equal(t, "File", entry.KindFile.String())
		assert.Equal(t, "Unknown: 5", entry.Kind(5).String())
	})
}

func TestEntry_Validate(t *testing.T) {
	now := time.Now()

	assert.NoError(t, entry.NewURLEntry("a", "https://a.com", now).Validate())
	assert.NoError(t, entry.NewFileEntry("a", "", now).Validate())

	invalid := map[string]*entry.Entry{
		"empty name":    {Kind: entry.KindURL, URL: "https://a.com"},
		"url with ext":  {Name: "a", Kind: entry.KindURL, URL: "https://a.com", Ext: "png"},
		"file with url": {Name: "a", Kind: entry.KindFile, URL: "https://a.com"},
		"unknown kind":  {Name: "a", Kind: entry.Kind(9)},
	}

	for name, e := range invalid {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, e.Validate(), entry.ErrCorruptEntry)
		})
	}
}
