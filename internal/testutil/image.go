// Package testutil provides small helpers shared by tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
)

// TinyPNG returns an encoded PNG of the given dimensions, usable as a fake
// avatar upload.
func TinyPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ImageHostStub starts an httptest server that accepts Cloudinary-style
// upload and destroy calls, recording destroyed public ids.
func ImageHostStub() (*httptest.Server, *[]string) {
	destroyed := &[]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1_1/demo/image/upload":
			_ = r.ParseMultipartForm(4 << 20)
			publicID := r.FormValue("public_id")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"public_id":"` + publicID + `","secure_url":"https://res.example.com/` + publicID + `.webp"}`))
		case r.URL.Path == "/v1_1/demo/image/destroy":
			_ = r.ParseForm()
			*destroyed = append(*destroyed, r.FormValue("public_id"))
			_, _ = w.Write([]byte(`{"result":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, destroyed
}
