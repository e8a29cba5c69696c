package snmp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Response tokens defined by the pass_persist protocol.
const (
	tokenPong        = "PONG"
	tokenNone        = "NONE"
	tokenNotWritable = "not-writable"
)

// TreeSource supplies the current sub-tree. Implementations are expected to
// cache between commands — a full SNMP walk issues dozens of sequential
// getnext calls and must not hammer the upstream API. A degraded source
// returns an empty tree, never an error: the daemon restarting its
// extension process on every transient upstream hiccup would be disruptive.
type TreeSource interface {
	Tree(ctx context.Context) *Tree
}

// Server speaks the pass_persist protocol: one textual command per turn on
// in, one response on out, strictly sequential. Nothing is ever written to
// out unsolicited; doing so would break the line protocol.
type Server struct {
	source TreeSource
	in     io.Reader
	out    *bufio.Writer
}

func NewServer(source TreeSource, in io.Reader, out io.Writer) *Server {
	return &Server{source: source, in: in, out: bufio.NewWriter(out)}
}

// Serve runs the command loop until the input channel closes (the daemon
// hung up) or ctx is cancelled. Unrecognized commands are answered with
// NONE and never terminate the loop.
func (s *Server) Serve(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read command: %w", err)
					}
				default:
				}
				slog.Debug("Input closed, exiting command loop.")
				return nil
			}
			if err := s.handle(ctx, line, lines); err != nil {
				return err
			}
		}
	}
}

// handle answers a single command. Multi-line commands (the form net-snmp
// actually sends) pull their remaining lines from the same channel.
func (s *Server) handle(ctx context.Context, line string, lines <-chan string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "ping":
		return s.respond(tokenPong)

	case "get":
		oid, ok := argOID(fields, lines)
		if !ok {
			return s.respond(tokenNone)
		}
		node, found := s.source.Tree(ctx).Get(oid)
		if !found {
			return s.respond(tokenNone)
		}
		return s.respondNode(node)

	case "getnext":
		oid, ok := argOID(fields, lines)
		if !ok {
			return s.respond(tokenNone)
		}
		node, found := s.source.Tree(ctx).Next(oid)
		if !found {
			return s.respond(tokenNone)
		}
		return s.respondNode(node)

	case "getbulk":
		// Answered like getnext from the last argument; the repetition
		// counts are read and discarded.
		var raw string
		if len(fields) >= 2 {
			raw = fields[len(fields)-1]
		} else {
			readLine(lines) // non-repeaters
			readLine(lines) // max-repetitions
			raw, _ = readLine(lines)
		}
		oid, err := ParseOID(raw)
		if err != nil {
			return s.respond(tokenNone)
		}
		node, found := s.source.Tree(ctx).Next(oid)
		if !found {
			return s.respond(tokenNone)
		}
		return s.respondNode(node)

	case "set":
		// The bridge is read-only. Consume the OID and "type value" lines
		// when they were not given inline.
		if len(fields) < 2 {
			readLine(lines)
		}
		if len(fields) < 3 {
			readLine(lines)
		}
		return s.respond(tokenNotWritable)

	default:
		slog.Debug("Unrecognized command.", "command", fields[0])
		return s.respond(tokenNone)
	}
}

// argOID resolves a command's OID argument: inline after the command word
// when present, otherwise on the following line (the form net-snmp sends).
func argOID(fields []string, lines <-chan string) (OID, bool) {
	raw := ""
	if len(fields) > 1 {
		raw = fields[1]
	} else {
		next, ok := readLine(lines)
		if !ok {
			return nil, false
		}
		raw = next
	}

	oid, err := ParseOID(raw)
	if err != nil {
		slog.Debug("Unparseable OID.", "oid", raw, "err", err)
		return nil, false
	}
	return oid, true
}

func readLine(lines <-chan string) (string, bool) {
	line, ok := <-lines
	return strings.TrimSpace(line), ok
}

func (s *Server) respond(tokens ...string) error {
	for _, tok := range tokens {
		if _, err := s.out.WriteString(tok + "\n"); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}

func (s *Server) respondNode(n Node) error {
	return s.respond(n.OID.String(), n.Type, n.Value)
}
