package controller

import (
	"io"
	"regexp"
)

// credentialRe matches ftp/sftp URLs embedding a password, the one
// credential shape condoor/utils.py's FilteredFile redacts from session
// transcripts and log files.
var credentialRe = regexp.MustCompile(`s?ftp://[^:]*:([^@]*)@`)

// RedactingWriter decorates a transcript sink, rewriting any credential
// capture group match to "***" before the bytes reach the underlying
// writer. It composes with whatever sink the caller configured (stderr
// by default) rather than taking a redaction flag, so every transcript
// byte path goes through the same filter.
type RedactingWriter struct {
	dst io.Writer
}

// NewRedactingWriter wraps dst.
func NewRedactingWriter(dst io.Writer) *RedactingWriter {
	return &RedactingWriter{dst: dst}
}

func (w *RedactingWriter) Write(p []byte) (int, error) {
	redacted := redact(p)
	if _, err := w.dst.Write(redacted); err != nil {
		return 0, err
	}
	// Report the original length written, not the redacted one: callers
	// comparing n to len(p) should see the write as having consumed all
	// of p even though fewer bytes reached dst.
	return len(p), nil
}

func redact(p []byte) []byte {
	loc := credentialRe.FindSubmatchIndex(p)
	if loc == nil {
		return p
	}
	// loc[2:4] is the password capture group's byte range.
	out := make([]byte, 0, len(p))
	out = append(out, p[:loc[2]]...)
	out = append(out, []byte("***")...)
	out = append(out, p[loc[3]:]...)
	return out
}
