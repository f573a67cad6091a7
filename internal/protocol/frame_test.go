package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocument(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantDoc  string
		wantRest string
		wantErr  error
	}{
		{"single", `{"action":"ping"}`, `{"action":"ping"}`, ``, nil},
		{"two back to back", `{"action":"ping"}{"action":"stop_all"}`, `{"action":"ping"}`, `{"action":"stop_all"}`, nil},
		{"braces in strings", `{"label":"a}b{"}x`, `{"label":"a}b{"}`, `x`, nil},
		{"prefix", `{"action":"pi`, ``, `{"action":"pi`, ErrIncompleteDocument},
		{"whitespace only", "  \n", ``, "  \n", ErrIncompleteDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, rest, err := SplitDocument([]byte(tt.in))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantRest, string(rest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDoc, string(doc))
			assert.Equal(t, tt.wantRest, string(rest))
		})
	}
}

func TestSplitDocumentAcrossReads(t *testing.T) {
	full := `{"status":"success","message":"Sorted: plastic"}`
	var buf []byte
	for i := 0; i < len(full)-1; i++ {
		buf = append(buf, full[i])
		_, _, err := SplitDocument(buf)
		require.ErrorIs(t, err, ErrIncompleteDocument, "after %d bytes", i+1)
	}
	buf = append(buf, full[len(full)-1])
	doc, rest, err := SplitDocument(buf)
	require.NoError(t, err)
	assert.Equal(t, full, string(doc))
	assert.Empty(t, rest)
}

func TestSplitDocumentBounds(t *testing.T) {
	open := `{"label":"` + strings.Repeat("x", MaxDocumentSize)
	_, _, err := SplitDocument([]byte(open))
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	_, _, err = SplitDocument([]byte(`{"action" ping}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncompleteDocument)
}
