package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// wrapBreakpoints are the characters ansi.Wrap may break a line after.
const wrapBreakpoints = " ,.;-+|"

var (
	mdParser     goldmark.Markdown
	mdParserOnce sync.Once
)

func markdownParser() goldmark.Markdown {
	mdParserOnce.Do(func() {
		mdParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return mdParser
}

// RenderMarkdown renders model output as styled terminal text wrapped to
// width. With color false the result is plain text, still reflowed.
func RenderMarkdown(input string, width int, color bool) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	lr := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(profile))
	lr.SetColorProfile(profile)

	source := []byte(input)
	doc := markdownParser().Parser().Parse(text.NewReader(source))

	r := &mdRenderer{source: source, width: width, color: color, lr: lr}
	_ = ast.Walk(doc, r.walk)
	return strings.TrimRight(r.out.String(), "\n")
}

// mdRenderer walks the goldmark AST directly. Inline content collects in a
// buffer and is wrapped as a unit when its block closes.
type mdRenderer struct {
	source []byte
	width  int
	color  bool
	lr     *lipgloss.Renderer

	out    strings.Builder
	inline strings.Builder

	prefix        string
	pendingBullet string
	bold, italic  int
	lists         []mdList
	trailing      int
}

type mdList struct {
	ordered bool
	counter int
	tight   bool
}

func (r *mdRenderer) style() lipgloss.Style { return r.lr.NewStyle() }

func (r *mdRenderer) contentWidth() int {
	w := r.width - lipgloss.Width(r.prefix)
	if w < 10 {
		w = 10
	}
	return w
}

func (r *mdRenderer) write(s string) {
	if s == "" {
		return
	}
	r.out.WriteString(s)
	n := len(s) - len(strings.TrimRight(s, "\n"))
	if n == len(s) {
		r.trailing += n
	} else {
		r.trailing = n
	}
}

func (r *mdRenderer) newline() {
	if r.trailing < 1 {
		r.write("\n")
	}
}

func (r *mdRenderer) blankLine() {
	if r.out.Len() == 0 {
		return
	}
	for r.trailing < 2 {
		r.write("\n")
	}
}

func (r *mdRenderer) tight() bool {
	return len(r.lists) > 0 && r.lists[len(r.lists)-1].tight
}

// prefixed applies the bullet to the first line and the running prefix to
// the rest.
func (r *mdRenderer) prefixed(content string) string {
	lines := strings.Split(content, "\n")
	for i := range lines {
		p := r.prefix
		if i == 0 && r.pendingBullet != "" {
			p = r.pendingBullet
			r.pendingBullet = ""
		}
		lines[i] = p + lines[i]
	}
	return strings.Join(lines, "\n")
}

func (r *mdRenderer) flush() string {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return ""
	}
	return r.prefixed(ansi.Wrap(content, r.contentWidth(), wrapBreakpoints))
}

func (r *mdRenderer) styled(s string) string {
	st := r.style()
	if r.bold > 0 {
		st = st.Bold(true)
	}
	if r.italic > 0 {
		st = st.Italic(true)
	}
	return st.Render(s)
}

func (r *mdRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
			break
		}
		if s := r.flush(); s != "" {
			r.write(s)
			r.newline()
			if !r.tight() {
				r.blankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
			break
		}
		content := ansi.Strip(r.inline.String())
		r.inline.Reset()
		if content == "" {
			break
		}
		st := r.style().Bold(true)
		if n.(*ast.Heading).Level <= 2 {
			st = st.Foreground(ColorSecondary)
		}
		r.blankLine()
		r.write(r.prefixed(ansi.Wrap(st.Render(content), r.contentWidth(), wrapBreakpoints)))
		r.newline()
		r.blankLine()

	case ast.KindFencedCodeBlock:
		if entering {
			fc := n.(*ast.FencedCodeBlock)
			r.codeBlock(r.lines(fc.Lines()), string(fc.Language(r.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			r.codeBlock(r.lines(n.Lines()), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			r.prefix += "│ "
		} else {
			r.prefix = strings.TrimSuffix(r.prefix, "│ ")
			r.blankLine()
		}

	case ast.KindList:
		if entering {
			l := n.(*ast.List)
			r.lists = append(r.lists, mdList{ordered: l.IsOrdered(), counter: l.Start, tight: l.IsTight})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if !r.tight() {
				r.blankLine()
			}
		}

	case ast.KindListItem:
		if len(r.lists) == 0 {
			break
		}
		top := &r.lists[len(r.lists)-1]
		if entering {
			bullet := "• "
			if top.ordered {
				bullet = fmt.Sprintf("%d. ", top.counter)
				top.counter++
			}
			r.pendingBullet = r.prefix + bullet
			r.prefix += strings.Repeat(" ", lipgloss.Width(bullet))
		} else {
			r.prefix = r.prefix[:len(r.prefix)-lipgloss.Width(bulletFor(top))]
			if r.tight() {
				r.newline()
			} else {
				r.blankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			r.blankLine()
			r.write(r.prefixed(r.style().Foreground(ColorMuted).Render(strings.Repeat("─", r.contentWidth()))))
			r.newline()
			r.blankLine()
		}

	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			r.inline.WriteString(r.styled(string(t.Segment.Value(r.source))))
			if t.HardLineBreak() {
				r.inline.WriteString("\n")
			} else if t.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styled(string(n.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if n.(*ast.Emphasis).Level >= 2 {
			r.bold += delta
		} else {
			r.italic += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					code.Write(t.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(r.style().Foreground(ColorInfo).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			dest := string(n.(*ast.Link).Destination)
			if dest != "" {
				r.inline.WriteString(" " + r.style().Foreground(ColorMuted).Render("("+dest+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			url := string(n.(*ast.AutoLink).URL(r.source))
			r.inline.WriteString(r.style().Foreground(ColorMuted).Render(url))
		}

	case extast.KindStrikethrough:
		// rendered as plain text
	}

	return ast.WalkContinue, nil
}

func bulletFor(l *mdList) string {
	if l.ordered {
		return fmt.Sprintf("%d. ", l.counter-1)
	}
	return "• "
}

func (r *mdRenderer) lines(segs *text.Segments) string {
	var b strings.Builder
	for i := 0; i < segs.Len(); i++ {
		s := segs.At(i)
		b.Write(s.Value(r.source))
	}
	return b.String()
}

func (r *mdRenderer) codeBlock(code, lang string) {
	body := strings.TrimRight(code, "\n")
	if r.color {
		body = strings.TrimRight(Highlight(code, lang), "\n")
	}
	r.blankLine()
	for _, line := range strings.Split(body, "\n") {
		r.write(r.prefixed("  " + line))
		r.newline()
	}
	r.blankLine()
}

// Highlight syntax-highlights code for a 256-colour terminal. Unknown
// languages and chroma failures return the input unchanged.
func Highlight(code, lang string) string {
	if lang == "" {
		return code
	}
	var b strings.Builder
	if err := quick.Highlight(&b, code, lang, "terminal256", "monokai"); err != nil {
		return code
	}
	return b.String()
}
