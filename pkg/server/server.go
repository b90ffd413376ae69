// Package server implements the HTTP-server mode's wire surface: the
// static-file-serving rules of spec section 6 and per-connection
// dispatch to the compiled program for everything else. Go has no
// fork(2); the isolation invariant spec.md describes ("the parent never
// shares mutable state with the core after fork") is instead achieved by
// handing each accepted connection to its own goroutine, which either
// serves a static file directly or execs the compiled program as a child
// process (os/exec) with the connection's file descriptor passed through
// as fd 3.
package server

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// staticExtensions is the allow-list of filename extensions served
// directly, mapped to the Content-Type the response reports.
var staticExtensions = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".gif":  "image/gif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".ico":  "image/x-icon",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
}

// Server dispatches accepted TCP connections to either static-file
// serving or the compiled program named by ProgramPath.
type Server struct {
	Addr        string
	Root        string // directory static file requests are resolved against
	ProgramPath string // the compiled program exec'd for dynamic requests
}

// ListenAndServe accepts connections on s.Addr until the listener fails.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	defer ln.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.dispatch(conn)
	}
}

func (s *Server) dispatch(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	reqLine, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	if path, ok := staticRequest(reqLine); ok {
		s.serveStatic(conn, path)
		return
	}
	s.serveDynamic(conn)
}

// staticRequest reports whether line is a static-file request, and if so
// the URL-decoded path it names: the request line must begin with "GET
// ", the decoded path must contain no "/../" segment, and its extension
// must be in staticExtensions.
func staticRequest(line string) (string, bool) {
	const method = "GET "
	if !strings.HasPrefix(line, method) {
		return "", false
	}
	rest := line[len(method):]
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return "", false
	}
	decoded, err := url.QueryUnescape(rest[:sp])
	if err != nil {
		return "", false
	}
	if strings.Contains(decoded, "/../") {
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(decoded))
	if _, ok := staticExtensions[ext]; !ok {
		return "", false
	}
	return decoded, true
}

// serveStatic writes reqPath's contents, resolved under s.Root, to w as
// the fixed response spec.md §6 pins down. A file that can't be read
// simply yields no response; spec.md only defines the success case.
func (s *Server) serveStatic(w io.Writer, reqPath string) error {
	full := filepath.Join(s.Root, reqPath)
	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("server: reading %s: %w", full, err)
	}
	mime := staticExtensions[strings.ToLower(filepath.Ext(reqPath))]
	_, err = w.Write(buildStaticResponse(data, mime))
	return err
}

// buildStaticResponse renders the fixed success response spec.md §6
// pins down.
func buildStaticResponse(data []byte, mime string) []byte {
	header := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Length: %d\r\nConnection: close\r\nContent-Type: %s\r\n\r\n",
		len(data), mime,
	)
	return append([]byte(header), data...)
}

// serveDynamic execs s.ProgramPath with the accepted connection's
// duplicated file descriptor bound to fd 3, the Go analogue of "the
// compiled program is executed with file descriptor 3 bound to the
// accepted socket."
func (s *Server) serveDynamic(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return fmt.Errorf("server: dynamic dispatch requires a TCP connection")
	}
	connFile, err := tcpConn.File()
	if err != nil {
		return fmt.Errorf("server: duplicating connection: %w", err)
	}
	defer connFile.Close()

	cmd := exec.Command(s.ProgramPath)
	cmd.ExtraFiles = []*os.File{connFile} // becomes fd 3 in the child
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("server: running %s: %w", s.ProgramPath, err)
	}
	return nil
}
