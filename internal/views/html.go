package views

import (
	"io"

	"github.com/a-h/templ"
)

// htmlWriter writes markup fragments and keeps the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) attr(s string) {
	hw.raw(templ.EscapeString(s))
}

// url writes a link target, replacing unsafe schemes.
func (hw *htmlWriter) url(s string) {
	hw.attr(string(templ.URL(s)))
}
