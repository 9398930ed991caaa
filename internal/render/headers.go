package render

import (
	"fmt"
	"strings"

	"github.com/dgallion1/longform/internal/doctree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const latexHeader = `\usepackage{amsmath}
\usepackage{amsthm}
\usepackage{biblatex}
\usepackage{graphicx}
\usepackage{hyperref}

\usepackage{cleveref}

\usepackage{listings}
\usepackage{xcolor}
\lstset{
    basicstyle=\ttfamily,
    breaklines=true,
    showstringspaces=false,
    commentstyle=\color{gray},
    keywordstyle=\color{blue},
    stringstyle=\color{red}
}

\theoremstyle{plain}
\newtheorem{theorem}{Theorem}[section]
\newtheorem{corollary}{Corollary}[section]
\newtheorem{lemma}{Lemma}[section]
\newtheorem{proposition}{Proposition}[section]

\theoremstyle{definition}
\newtheorem{definition}{Definition}[section]
\newtheorem{example}{Example}

\theoremstyle{remark}
\newtheorem{remark}{Remark}[section]
\newtheorem{fact}[remark]{Fact}
`

// LaTeXHeader declares the packages and theorem environments the LaTeX
// backend emits.
func LaTeXHeader() string { return latexHeader }

// TypstHeader defines one function per theorem-like environment. Each is a
// figure of its own kind so labels on it can be referenced.
func TypstHeader() string {
	title := cases.Title(language.English)
	var sb strings.Builder
	sb.WriteString(`#let theorem-like(kind, supplement) = (title: none, body) => figure(
  kind: kind,
  supplement: supplement,
  outlined: false,
  align(left)[*#supplement*#if title != none [ (#title)]. #body],
)

`)
	for _, env := range doctree.Environments {
		if env == "proof" {
			continue
		}
		fmt.Fprintf(&sb, "#let %s = theorem-like(%q, [%s])\n", env, env, title.String(env))
	}
	sb.WriteString(`
#let proof(title: none, body) = block(width: 100%)[
  _#if title != none [#title] else [Proof]._ #body #h(1fr) $square$
]
`)
	return sb.String()
}
