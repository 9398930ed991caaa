package render

import (
	"strconv"
	"strings"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/doctree"
)

// LaTeX renders LaTeX markup.
type LaTeX struct {
	settings config.Settings
}

func (l *LaTeX) Name() config.Backend { return config.BackendLaTeX }
func (l *LaTeX) Ext() string          { return ".tex" }
func (l *LaTeX) Header() string       { return LaTeXHeader() }

func (l *LaTeX) Render(buf *Buffer, off int, n doctree.Node) int {
	w := &latexWriter{writer: writer{buf: buf, off: off}, settings: l.settings}
	n.Accept(w)
	return w.off
}

var articleSections = []string{`\section`, `\subsection`, `\subsubsection`, `\paragraph`, `\subparagraph`}

var bookSections = []string{`\chapter`, `\section`, `\subsection`, `\subsubsection`, `\paragraph`, `\subparagraph`}

type latexWriter struct {
	writer
	settings config.Settings
}

var _ doctree.Visitor = (*latexWriter)(nil)

func (w *latexWriter) inlines(nodes []doctree.Node) {
	for _, n := range nodes {
		n.Accept(w)
	}
}

func (w *latexWriter) label(l string) {
	if l != "" {
		w.write(`\label{`, l, "}")
	}
}

func (w *latexWriter) VisitParagraph(n *doctree.Paragraph) {
	w.inlines(n.Children)
	w.write("\n\n")
}

func (w *latexWriter) VisitText(n *doctree.Text) { w.write(EscapeLaTeX(n.Content)) }

func (w *latexWriter) VisitEmphasis(n *doctree.Emphasis) {
	w.write(`\emph{`)
	w.inlines(n.Children)
	w.write("}")
}

func (w *latexWriter) VisitStrong(n *doctree.Strong) {
	w.write(`\textbf{`)
	w.inlines(n.Children)
	w.write("}")
}

func (w *latexWriter) VisitInlineCode(n *doctree.InlineCode) {
	w.write(`\texttt{`, EscapeLaTeX(n.Code), "}")
}

func (w *latexWriter) VisitInlineMath(n *doctree.InlineMath) { w.write("$", n.Content, "$") }

func (w *latexWriter) VisitCitation(n *doctree.Citation) {
	cmd := w.settings.DefaultCitationCommand
	if cmd == "" {
		cmd = "cite"
	}
	w.write(`\`, cmd, "{", strings.Join(n.Keys, ","), "}")
}

func (w *latexWriter) VisitReference(n *doctree.Reference) { w.write(`\Cref{`, n.Label, "}") }

func (w *latexWriter) VisitLink(n *doctree.Link) {
	if n.URL == "" {
		w.write(EscapeLaTeX(n.Text))
		return
	}
	text := n.Text
	if text == "" {
		text = n.URL
	}
	w.write(`\href{`, n.URL, "}{", EscapeLaTeX(text), "}")
}

func (w *latexWriter) VisitHeading(n *doctree.Heading) {
	sections := articleSections
	if w.settings.DocumentStructure == config.StructureBook {
		sections = bookSections
	}
	i := min(max(n.Level, 1), len(sections)) - 1
	w.write(sections[i], "{")
	w.inlines(n.Title)
	w.write("}")
	w.label(n.Label)
	w.write("\n")
}

func (w *latexWriter) VisitOrderedList(n *doctree.OrderedList) {
	w.write(`\begin{enumerate}`, "\n")
	if n.Start > 1 {
		w.write(`\setcounter{enumi}{`, strconv.Itoa(n.Start-1), "}\n")
	}
	for _, item := range n.Items {
		w.item(item)
	}
	w.write(`\end{enumerate}`, "\n")
}

func (w *latexWriter) VisitUnorderedList(n *doctree.UnorderedList) {
	w.write(`\begin{itemize}`, "\n")
	for _, item := range n.Items {
		w.item(item)
	}
	w.write(`\end{itemize}`, "\n")
}

func (w *latexWriter) item(nodes []doctree.Node) {
	w.write(`\item `)
	for i, n := range nodes {
		if p, ok := n.(*doctree.Paragraph); ok {
			w.inlines(p.Children)
			w.write("\n")
			continue
		}
		if i == 0 {
			w.write("\n")
		}
		n.Accept(w)
	}
	if len(nodes) == 0 {
		w.write("\n")
	}
}

func (w *latexWriter) VisitDisplayMath(n *doctree.DisplayMath) {
	env := n.Env
	if env == "" {
		env = "equation"
		if n.Label == "" {
			env = "equation*"
		}
	}
	w.write(`\begin{`, env, "}")
	w.label(n.Label)
	w.write("\n", n.Content, "\n", `\end{`, env, "}\n")
}

func (w *latexWriter) VisitCodeBlock(n *doctree.CodeBlock) {
	if n.Caption != "" {
		w.write(`\begin{figure}[h]`, "\n")
	}
	w.write(`\begin{lstlisting}`)
	var opts []string
	if n.Language != "" {
		opts = append(opts, "language="+n.Language)
	}
	if n.Label != "" && n.Caption == "" {
		opts = append(opts, "label="+n.Label)
	}
	if len(opts) > 0 {
		w.write("[", strings.Join(opts, ","), "]")
	}
	w.write("\n", n.Code, "\n", `\end{lstlisting}`, "\n")
	if n.Caption != "" {
		w.write(`\caption{`, EscapeLaTeX(n.Caption), "}")
		w.label(n.Label)
		w.write("\n", `\end{figure}`, "\n")
	}
}

func (w *latexWriter) VisitQuote(n *doctree.Quote) { w.lineComment(n.Content) }

func (w *latexWriter) VisitComment(n *doctree.Comment) { w.lineComment(n.Content) }

func (w *latexWriter) lineComment(content string) {
	for _, line := range strings.Split(content, "\n") {
		w.write("% ", line, "\n")
	}
}

func (w *latexWriter) VisitEmbed(n *doctree.Embed) {
	w.write("% unresolved embed: ", n.Address, "\n")
}

func (w *latexWriter) VisitEnvironment(n *doctree.Environment) {
	w.write(`\begin{`, n.Name, "}")
	if n.Title != "" {
		w.write("[", EscapeLaTeX(n.Title), "]")
	}
	w.label(n.Label)
	w.write("\n")
	for _, c := range n.Body {
		c.Accept(w)
	}
	w.write(`\end{`, n.Name, "}\n\n")
}

func (w *latexWriter) VisitImage(n *doctree.Image) {
	w.write(`\begin{figure}[h]`, "\n", `\centering`, "\n", `\includegraphics`)
	if n.Width != "" {
		w.write("[width=", n.Width, "px]")
	}
	w.write("{Attachments/", n.Path, "}\n")
	if n.Caption != "" {
		w.write(`\caption{`, EscapeLaTeX(n.Caption), "}\n")
	}
	if n.Label != "" {
		w.label(n.Label)
		w.write("\n")
	}
	w.write(`\end{figure}`, "\n\n")
}

func (w *latexWriter) VisitTable(n *doctree.Table) {
	cols := len(n.Header)
	for _, r := range n.Rows {
		cols = max(cols, len(r))
	}
	w.write(`\begin{table}[h]`, "\n", `\centering`, "\n")
	w.write(`\begin{tabular}{`, strings.TrimSpace(strings.Repeat("l ", cols)), "}\n", `\hline`, "\n")
	if len(n.Header) > 0 {
		w.write(latexRow(n.Header), `\hline`, "\n")
	}
	for _, r := range n.Rows {
		w.write(latexRow(r))
	}
	w.write(`\hline`, "\n", `\end{tabular}`, "\n")
	if n.Caption != "" {
		w.write(`\caption{`, EscapeLaTeX(n.Caption), "}\n")
	}
	if n.Label != "" {
		w.label(n.Label)
		w.write("\n")
	}
	w.write(`\end{table}`, "\n\n")
}

func latexRow(cells []string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = EscapeLaTeX(c)
	}
	return strings.Join(parts, " & ") + ` \\` + "\n"
}

func (w *latexWriter) VisitErrorMarker(n *doctree.ErrorMarker) {
	w.write(`\textcolor{red}{`, EscapeLaTeX(n.Reason+": "+n.Message), "}\n\n")
}
