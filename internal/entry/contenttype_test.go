package entry_test

import (
	"testing"

	"github.com/serroba/namecdn/internal/entry"
	"github.com/stretchr/testify/assert"
)

func TestInferContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{ext: "", want: "application/octet-stream"},
		{ext: "png", want: "image/png"},
		{ext: "PNG", want: "image/PNG"},
		{ext: "JpEg", want: "image/JpEg"},
		{ext: "webp", want: "image/webp"},
		{ext: "rs", want: "text/rs"},
		{ext: "RS", want: "RS"},
		{ext: "typescript", want: "text/typescript"},
		{ext: "html", want: "text/html"},
		{ext: "bin", want: "bin"},
		{ext: "application/pdf", want: "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, entry.InferContentType(tt.ext))
		})
	}
}
