// ABOUTME: Output helpers for kgconsole commands
// ABOUTME: Tables via tabwriter, indented JSON, and colored labels for user and log fields

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/workshop/kgconsole/internal/session"
)

var (
	dim    = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printJSON writes v indented. json.RawMessage values are re-indented as sent.
func printJSON(w io.Writer, v any) error {
	if raw, ok := v.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			_, err = fmt.Fprintln(w, string(raw))
			return err
		}
		_, err := fmt.Fprintln(w, buf.String())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func userTypeLabel(userType int) string {
	if userType == session.UserTypeAdmin {
		return yellow.Sprint("admin")
	}
	return "user"
}

func userStatusLabel(status int) string {
	if status == session.UserStatusEnabled {
		return green.Sprint("enabled")
	}
	return red.Sprint("disabled")
}

// outcomeLabel renders an operation log's status: 1 success, 0 failure.
func outcomeLabel(status int) string {
	if status == 1 {
		return green.Sprint("ok")
	}
	return red.Sprint("failed")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
