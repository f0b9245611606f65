package httpserver

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/nmxmxh/bumppool/internal/auth"
	"github.com/nmxmxh/bumppool/pool"
)

// handleRequest authenticates req against store using p's head-end
// scratch and returns the response to send. It never frees what it
// allocates — the caller resets p once the response has been written.
func handleRequest(store *auth.Store, p *pool.Pool, connIDHex string, req *http.Request) *http.Response {
	creds, err := auth.Decode(p, req.Header.Get("Authorization"))
	if err != nil {
		return unauthorized()
	}

	user, pass, err := auth.Split(p.Bytes(creds))
	if err != nil || !store.Verify(user, pass) {
		return unauthorized()
	}

	body := []byte(fmt.Sprintf("hello %s, connection %s, %d scratch bytes free\n",
		user, connIDHex, p.FreeBytes()))
	return textResponse(http.StatusOK, body, nil)
}

func unauthorized() *http.Response {
	return textResponse(http.StatusUnauthorized, []byte("unauthorized\n"), http.Header{
		"Www-Authenticate": {`Basic realm="bumppool"`},
	})
}

// textResponse builds a plain-text HTTP/1.1 response ready for
// (*http.Response).Write. extra headers, if given, are merged in after
// the default Content-Type.
func textResponse(status int, body []byte, extra http.Header) *http.Response {
	h := http.Header{"Content-Type": {"text/plain; charset=utf-8"}}
	for k, v := range extra {
		h[k] = v
	}
	return &http.Response{
		StatusCode:    status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
