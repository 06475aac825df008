package whisper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ajaytemal-source/Resonate/pkg/provider/transcribe/whisper"
)

func startServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_RequiresServerURL(t *testing.T) {
	t.Parallel()
	if _, err := whisper.New(""); err == nil {
		t.Error("New with empty serverURL should fail")
	}
}

func TestTranscribe(t *testing.T) {
	t.Parallel()
	srv := startServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("path = %s, want /inference", r.URL.Path)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			file.Close()
		}
		if got := r.FormValue("language"); got != "de" {
			t.Errorf("language = %q, want de", got)
		}
		if got := r.FormValue("model"); got != "small" {
			t.Errorf("model = %q, want small", got)
		}
		w.Write([]byte(`{"text": "guten morgen"}`))
	})

	p, err := whisper.New(srv.URL, whisper.WithLanguage("de"), whisper.WithModel("small"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := p.Transcribe(context.Background(), []byte("RIFF...."))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "guten morgen" {
		t.Errorf("text = %q, want guten morgen", text)
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()
	srv := startServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	p, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), []byte("x")); err == nil {
		t.Error("Transcribe should fail on HTTP 500")
	}
}

func TestTranscribe_MalformedResponse(t *testing.T) {
	t.Parallel()
	srv := startServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	})

	p, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Transcribe(context.Background(), []byte("x")); err == nil {
		t.Error("Transcribe should fail on a malformed response")
	}
}
