package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/freekieb7/hearth/static"
	"github.com/freekieb7/hearth/test"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

func newTestServer(t *testing.T, files map[string]string) *Server {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	srv, err := NewServer("test", root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

type pipeClient struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
	done chan struct{}
}

func dialPipe(t *testing.T, srv *Server) *pipeClient {
	t.Helper()

	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ServeConn(context.Background(), serverConn)
	}()

	t.Cleanup(func() { clientConn.Close() })

	return &pipeClient{t: t, conn: clientConn, br: bufio.NewReader(clientConn), done: done}
}

func (c *pipeClient) send(raw string) {
	c.t.Helper()

	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.conn.Write([]byte(raw)); err != nil {
		c.t.Fatalf("write error: %v", err)
	}
}

func (c *pipeClient) receive(method string) (*http.Response, string) {
	c.t.Helper()

	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := http.ReadResponse(c.br, &http.Request{Method: method})
	if err != nil {
		c.t.Fatalf("read error: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body error: %v", err)
	}
	resp.Body.Close()
	return resp, string(body)
}

func (c *pipeClient) roundTrip(method, raw string) (*http.Response, string) {
	c.t.Helper()

	c.send(raw)
	return c.receive(method)
}

// assertClosed expects the server side to have closed the connection.
func (c *pipeClient) assertClosed() {
	c.t.Helper()

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		c.t.Fatal("server kept the connection open")
	}

	c.conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := c.br.ReadByte(); err != io.EOF {
		c.t.Errorf("expected EOF after close, got %v", err)
	}
}

func (c *pipeClient) assertOpen() {
	c.t.Helper()

	select {
	case <-c.done:
		c.t.Fatal("server closed a keep-alive connection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServeConnKeepAlive(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"index.html": "<h1>home</h1>",
		"about.html": "<h1>about</h1>",
	})
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("GET", "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "keep-alive", resp.Header.Get("Connection"))
	test.AssertEqual(t, "text/html", resp.Header.Get("Content-Type"))
	test.AssertEqual(t, "<h1>home</h1>", body)
	c.assertOpen()

	resp, body = c.roundTrip("GET", "GET /about.html HTTP/1.1\r\nConnection: Keep-Alive\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "keep-alive", resp.Header.Get("Connection"))
	test.AssertEqual(t, "<h1>about</h1>", body)
	c.assertOpen()

	resp, _ = c.roundTrip("GET", "GET /about.html HTTP/1.1\r\nConnection: CLOSE\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "close", resp.Header.Get("Connection"))
	c.assertClosed()
}

func TestServeConnMalformedRequestLine(t *testing.T) {
	for _, raw := range []string{
		"GET\r\n\r\n",
		"GET /index.html\r\nHost: a\r\n\r\n",
		"GET  HTTP/1.1\r\n\r\n",
	} {
		t.Run(strings.TrimSpace(raw), func(t *testing.T) {
			srv := newTestServer(t, nil)
			c := dialPipe(t, srv)

			resp, body := c.roundTrip("GET", raw)
			test.AssertEqual(t, 400, resp.StatusCode)
			test.AssertEqual(t, "close", resp.Header.Get("Connection"))
			test.AssertContains(t, body, "400")
			test.AssertContains(t, body, "Bad Request")
			c.assertClosed()
		})
	}
}

func TestServeConnPeerClose(t *testing.T) {
	srv := newTestServer(t, nil)
	c := dialPipe(t, srv)

	c.conn.Close()

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not notice the peer closing")
	}
}

func TestServeConnTraversal(t *testing.T) {
	srv := newTestServer(t, map[string]string{"index.html": "x"})
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("GET", "GET /../../etc/passwd HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 403, resp.StatusCode)
	test.AssertEqual(t, "text/html", resp.Header.Get("Content-Type"))
	test.AssertContains(t, body, "403 Forbidden")
	test.AssertEqual(t, "keep-alive", resp.Header.Get("Connection"))
	c.assertOpen()

	resp, _ = c.roundTrip("GET", "GET /img/..%2f../etc/passwd HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 403, resp.StatusCode)
}

func TestServeConnNotFound(t *testing.T) {
	srv := newTestServer(t, map[string]string{"index.html": "x"})
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("GET", "GET /missing.html HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 404, resp.StatusCode)
	test.AssertEqual(t, "text/html", resp.Header.Get("Content-Type"))
	test.AssertContains(t, body, "404")
	test.AssertContains(t, body, "Not Found")
	c.assertOpen()
}

func TestServeConnDirectoryForbidden(t *testing.T) {
	srv := newTestServer(t, map[string]string{"docs/readme.html": "x"})
	c := dialPipe(t, srv)

	resp, _ := c.roundTrip("GET", "GET /docs HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 403, resp.StatusCode)
}

func TestServeConnGzip(t *testing.T) {
	css := strings.Repeat(".a { color: #fff; }\n", 100)
	srv := newTestServer(t, map[string]string{
		"site.css": css,
		"tiny.css": "a{}",
	})
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("GET", "GET /site.css HTTP/1.1\r\nAccept-Encoding: gzip, deflate\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "gzip", resp.Header.Get("Content-Encoding"))
	test.AssertEqual(t, "text/css", resp.Header.Get("Content-Type"))
	test.AssertEqual(t, int64(len(body)), resp.ContentLength)

	zr, err := gzip.NewReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, css, string(plain))

	resp, body = c.roundTrip("GET", "GET /tiny.css HTTP/1.1\r\nAccept-Encoding: gzip\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "", resp.Header.Get("Content-Encoding"))
	test.AssertEqual(t, "a{}", body)

	resp, body = c.roundTrip("GET", "GET /site.css HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, "", resp.Header.Get("Content-Encoding"))
	test.AssertEqual(t, css, body)
}

func TestServeConnEcho(t *testing.T) {
	srv := newTestServer(t, nil)
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("POST", "POST /api/data?id=5 HTTP/1.1\r\nContent-Length: 11\r\n\r\nhello world")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "hello world", body)
	test.AssertEqual(t, "keep-alive", resp.Header.Get("Connection"))

	// body arrives in a second write
	c.send("PUT /thing HTTP/1.1\r\nContent-Length: 10\r\n\r\n")
	c.send("0123456789")
	resp, body = c.receive("PUT")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "0123456789", body)

	resp, body = c.roundTrip("POST", "POST / HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, string(placeholderBody), body)
}

func TestServeConnOversizedBodyIsDropped(t *testing.T) {
	srv := newTestServer(t, nil)
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("POST", "POST /upload HTTP/1.1\r\nContent-Length: 100000\r\nConnection: close\r\n\r\nabc")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, string(placeholderBody), body)
	c.assertClosed()
}

func TestServeConnHead(t *testing.T) {
	srv := newTestServer(t, map[string]string{"index.html": "<h1>home</h1>"})
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("HEAD", "HEAD / HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, int64(len(placeholderBody)), resp.ContentLength)
	test.AssertEqual(t, "", body)

	// nothing else was written: the next response starts right away
	resp, body = c.roundTrip("GET", "GET / HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "<h1>home</h1>", body)
}

func TestServeConnNotImplemented(t *testing.T) {
	srv := newTestServer(t, nil)
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("DELETE", "DELETE /index.html HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 501, resp.StatusCode)
	test.AssertContains(t, body, "501 Not Implemented")
	test.AssertEqual(t, "keep-alive", resp.Header.Get("Connection"))

	resp, _ = c.roundTrip("OPTIONS", "OPTIONS * HTTP/1.1\r\nConnection: close\r\n\r\n")
	test.AssertEqual(t, 501, resp.StatusCode)
	test.AssertEqual(t, "close", resp.Header.Get("Connection"))
	c.assertClosed()
}

func TestServeConnRecoversFromPanic(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.Router.Handle("BREW", func(ctx *RequestCtx) {
		panic("teapot")
	})
	c := dialPipe(t, srv)

	resp, _ := c.roundTrip("BREW", "BREW /pot HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 500, resp.StatusCode)
	c.assertOpen()
}

func TestServeConnHeadPanicKeepsBodyOmitted(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.Router.HEAD(func(ctx *RequestCtx) {
		panic("head handler")
	})
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("HEAD", "HEAD / HTTP/1.1\r\n\r\n")
	test.AssertEqual(t, 500, resp.StatusCode)
	test.AssertEqual(t, "", body)
	if resp.ContentLength <= 0 {
		t.Errorf("expected the error page length, got %d", resp.ContentLength)
	}

	// a leaked error page would be parsed as the next status line
	resp, body = c.roundTrip("POST", "POST / HTTP/1.1\r\nContent-Length: 4\r\n\r\nping")
	test.AssertEqual(t, 200, resp.StatusCode)
	test.AssertEqual(t, "ping", body)
}

func TestServeConnFileReadFailure(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.Router.GET(StaticHandler(&static.Resolver{FS: unreadableFS{}, Logger: srv.Logger}))
	c := dialPipe(t, srv)

	resp, body := c.roundTrip("GET", "GET /index.html HTTP/1.1\r\nAccept-Encoding: gzip\r\n\r\n")
	test.AssertEqual(t, 500, resp.StatusCode)
	test.AssertEqual(t, "text/html", resp.Header.Get("Content-Type"))
	test.AssertEqual(t, "", resp.Header.Get("Content-Encoding"))
	test.AssertContains(t, body, "500")
	test.AssertContains(t, body, "Internal Server Error")
	test.AssertEqual(t, "keep-alive", resp.Header.Get("Connection"))
	c.assertOpen()
}

// unreadableFS stats every path as a regular file but fails every read.
type unreadableFS struct{}

func (unreadableFS) ReadFile(path string) ([]byte, error) {
	return nil, fmt.Errorf("read %s: %w", path, syscall.EIO)
}

func (unreadableFS) FileMetaData(path string) (os.FileInfo, error) {
	return regularFileInfo{name: path, size: 64}, nil
}

type regularFileInfo struct {
	name string
	size int64
}

func (fi regularFileInfo) Name() string       { return fi.name }
func (fi regularFileInfo) Size() int64        { return fi.size }
func (fi regularFileInfo) Mode() os.FileMode  { return 0o644 }
func (fi regularFileInfo) ModTime() time.Time { return time.Time{} }
func (fi regularFileInfo) IsDir() bool        { return false }
func (fi regularFileInfo) Sys() any           { return nil }

func TestServeConnStableConnID(t *testing.T) {
	srv := newTestServer(t, nil)

	var ids []uuid.UUID
	srv.Router.Handle("PING", func(ctx *RequestCtx) {
		ids = append(ids, ctx.ConnID)
		ctx.Response.WithBody("text/plain", []byte("pong"))
	})

	first := dialPipe(t, srv)
	first.roundTrip("PING", "PING / HTTP/1.1\r\n\r\n")
	first.roundTrip("PING", "PING / HTTP/1.1\r\n\r\n")

	second := dialPipe(t, srv)
	second.roundTrip("PING", "PING / HTTP/1.1\r\n\r\n")

	test.AssertEqual(t, 3, len(ids))
	if ids[0] == uuid.Nil {
		t.Error("expected a connection id")
	}
	test.AssertEqual(t, ids[0], ids[1])
	if ids[0] == ids[2] {
		t.Error("expected distinct ids for distinct connections")
	}
}

func TestServeConnIdleTimeout(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.IdleTimeout = 20 * time.Millisecond
	c := dialPipe(t, srv)

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle connection was not closed")
	}
}

func BenchmarkServeConn(b *testing.B) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	srv, err := NewServer("bench", b.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		b.Fatal(err)
	}

	go srv.ServeConn(context.Background(), serverConn)

	reqStr := []byte("HEAD / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	reader := bufio.NewReader(clientConn)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := clientConn.Write(reqStr); err != nil {
			b.Fatalf("write error: %v", err)
		}
		resp, err := http.ReadResponse(reader, &http.Request{Method: "HEAD"})
		if err != nil {
			b.Fatalf("read error: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
