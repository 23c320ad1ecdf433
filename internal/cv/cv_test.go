package cv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	text     string
	err      error
	mimeType string
}

func (f *fakeExtractor) ExtractCVText(_ context.Context, mimeType string, _ []byte) (string, error) {
	f.mimeType = mimeType
	return f.text, f.err
}

func TestResolveDriveURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "file path link",
			in:   "https://drive.google.com/file/d/1AbC_dEf-123/view?usp=sharing",
			want: "https://drive.google.com/uc?export=download&id=1AbC_dEf-123",
		},
		{
			name: "open id link",
			in:   "https://drive.google.com/open?id=1AbC_dEf-123",
			want: "https://drive.google.com/uc?export=download&id=1AbC_dEf-123",
		},
		{
			name: "non drive url unchanged",
			in:   "https://example.com/cv.pdf",
			want: "https://example.com/cv.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDriveURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("drive url without id", func(t *testing.T) {
		_, err := ResolveDriveURL("https://drive.google.com/drive/my-drive")
		assert.Error(t, err)
	})
}

func TestDownload(t *testing.T) {
	t.Run("pdf without content type is sniffed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("%PDF-1.7 fake body"))
		}))
		defer srv.Close()

		data, mimeType, err := NewFetcher().Download(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", mimeType)
		assert.NotEmpty(t, data)
	})

	t.Run("non 200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, _, err := NewFetcher().Download(context.Background(), srv.URL)
		assert.ErrorContains(t, err, "403")
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		defer srv.Close()

		_, _, err := NewFetcher().Download(context.Background(), srv.URL)
		assert.ErrorContains(t, err, "empty")
	})
}

func TestIngest(t *testing.T) {
	t.Run("plain text skips extraction", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("  my cv text  "))
		}))
		defer srv.Close()

		extractor := &fakeExtractor{text: "should not be used"}
		text, err := Ingest(context.Background(), NewFetcher(), extractor, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "my cv text", text)
		assert.Empty(t, extractor.mimeType, "extractor should not be called")
	})

	t.Run("pdf goes through extractor", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.7 body"))
		}))
		defer srv.Close()

		extractor := &fakeExtractor{text: "extracted text"}
		text, err := Ingest(context.Background(), NewFetcher(), extractor, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "extracted text", text)
		assert.Equal(t, "application/pdf", extractor.mimeType)
	})

	t.Run("blank extraction is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.7 body"))
		}))
		defer srv.Close()

		extractor := &fakeExtractor{text: "   "}
		_, err := Ingest(context.Background(), NewFetcher(), extractor, srv.URL)
		assert.ErrorContains(t, err, "no text")
	})
}
