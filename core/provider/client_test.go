package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/aiftbot/core/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, services map[string]config.ProviderService) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	for name, svc := range services {
		svc.URL = srv.URL + "/" + name
		services[name] = svc
	}
	return New(config.ProviderConfig{APIKey: "secret", Services: services}, srv.Client())
}

func TestCallFormTextPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get(APIKeyHeader))
		assert.Equal(t, "/g2p", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "สวัสดี", r.PostForm.Get("text"))
		assert.Equal(t, "personname", r.PostForm.Get("model"))
		_, _ = w.Write([]byte(`{"output":{"result":"sa1 wat2 dii0"}}`))
	}, map[string]config.ProviderService{
		"g2p": {Encoding: "form", TextField: "text", Extra: map[string]string{"model": "personname"}, TextPath: "output.result"},
	})

	res, err := c.Call(context.Background(), Request{Service: "g2p", Text: "สวัสดี"})
	require.NoError(t, err)
	assert.Equal(t, "sa1 wat2 dii0", res.Text)
}

func TestCallJSONAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["input_text"])
		assert.Equal(t, float64(2), body["speaker"])
		_, _ = w.Write([]byte(`{"msg":"success","wav_url":"http://cdn.example/a.wav","durations":1.5}`))
	}, map[string]config.ProviderService{
		"vajatts": {Encoding: "json", TextField: "input_text", ParamField: "speaker", AudioPath: "wav_url", DurationPath: "durations"},
	})

	res, err := c.Call(context.Background(), Request{Service: "vajatts", Text: "hello", Param: "2"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.wav", res.AudioURL)
	assert.Equal(t, 1500*time.Millisecond, res.Duration)
	assert.Empty(t, res.Text)
}

func TestCallMultipartImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o600))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.FormValue("img_export"))
		f, hdr, err := r.FormFile("src_img")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(data))
		assert.Equal(t, "photo.jpg", hdr.Filename)
		_, _ = w.Write([]byte(`{"human_img":"http://img.example/out.jpg"}`))
	}, map[string]config.ProviderService{
		"person_detection": {Encoding: "multipart", FileField: "src_img", Extra: map[string]string{"img_export": "true"}, ImagePath: "human_img"},
	})

	res, err := c.Call(context.Background(), Request{Service: "person_detection", File: &Upload{Path: path, Name: "photo.jpg", MIME: "image/jpeg"}})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/out.jpg", res.ImageURL)
}

func TestCallEmojiRender(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"0":"0.10","9":"0.50","10":0.30,"17":"0.05","x":"1"}`))
	}, map[string]config.ProviderService{
		"thaimoji": {Encoding: "form", TextField: "text", Render: RenderEmoji},
	})

	res, err := c.Call(context.Background(), Request{Service: "thaimoji", Text: "ดีใจ"})
	require.NoError(t, err)
	assert.Equal(t, "😍 😌 😊", res.Text)
}

func TestCallWholeBodyAsText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"words":["ตัด","คำ"]}`))
	}, map[string]config.ProviderService{
		"lexto": {Encoding: "form", TextField: "text"},
	})

	res, err := c.Call(context.Background(), Request{Service: "lexto", Text: "ตัดคำ"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"words":["ตัด","คำ"]}`, res.Text)
}

func TestCallStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}, map[string]config.ProviderService{
		"tner": {Encoding: "form", TextField: "text"},
	})

	_, err := c.Call(context.Background(), Request{Service: "tner", Text: "x"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, se.Body, "quota")
}

func TestCallMissingPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"objects":[]}`))
	}, map[string]config.ProviderService{
		"nsfw": {Encoding: "form", TextPath: "objects.0.result"},
	})

	_, err := c.Call(context.Background(), Request{Service: "nsfw"})
	assert.Error(t, err)
}

func TestCallSplitsTwoPartInput(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "I love cats", r.PostForm.Get("en"))
		assert.Equal(t, "ฉันรักแมว", r.PostForm.Get("th"))
		_, _ = w.Write([]byte(`{"alignment":[[0,0]]}`))
	}, map[string]config.ProviderService{
		"en2th_aligner": {Encoding: "form", TextField: "en", SecondField: "th"},
	})

	_, err := c.Call(context.Background(), Request{Service: "en2th_aligner", Text: "I love cats | ฉันรักแมว"})
	require.NoError(t, err)

	_, err = c.Call(context.Background(), Request{Service: "en2th_aligner", Text: "only one side"})
	assert.ErrorIs(t, err, ErrBadInput)
	assert.Equal(t, int32(1), calls.Load(), "malformed input is not sent")
}

func TestCallUnknownService(t *testing.T) {
	c := New(config.ProviderConfig{}, http.DefaultClient)
	_, err := c.Call(context.Background(), Request{Service: "nope"})
	assert.ErrorIs(t, err, ErrUnknownService)
	assert.False(t, c.Has("nope"))
}

func TestLookup(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"objects":[{"result":"safe"}],"n":3}`), &doc))

	v, ok := Lookup(doc, "objects.0.result")
	assert.True(t, ok)
	assert.Equal(t, "safe", v)

	_, ok = Lookup(doc, "objects.1.result")
	assert.False(t, ok)
	_, ok = Lookup(doc, "n.x")
	assert.False(t, ok)
}

func TestJSONValue(t *testing.T) {
	assert.Equal(t, json.Number("30"), jsonValue("30"))
	assert.Equal(t, json.Number("0.6"), jsonValue("0.6"))
	assert.Equal(t, "007", jsonValue("007"))
	assert.Equal(t, true, jsonValue("true"))
	assert.Equal(t, "text", jsonValue("text"))
}
