package render

import "strings"

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`%`, `\%`,
	`&`, `\&`,
	`#`, `\#`,
	`$`, `\$`,
	`_`, `\_`,
	`^`, `\^{}`,
	`<`, `$<$`,
	`>`, `$>$`,
	`|`, `$|$`,
	"∞", `$\infty$`,
	"±", `$\pm$`,
	"×", `$\times$`,
	"÷", `$\div$`,
	"≠", `$\neq$`,
	"≤", `$\leq$`,
	"≥", `$\geq$`,
	"≈", `$\approx$`,
	"√", `$\sqrt{}$`,
	"∑", `$\sum$`,
	"∏", `$\prod$`,
	"∫", `$\int$`,
	"α", `$\alpha$`,
	"β", `$\beta$`,
	"γ", `$\gamma$`,
	"δ", `$\delta$`,
	"ε", `$\epsilon$`,
	"θ", `$\theta$`,
	"λ", `$\lambda$`,
	"μ", `$\mu$`,
	"π", `$\pi$`,
	"σ", `$\sigma$`,
	"φ", `$\phi$`,
	"ω", `$\omega$`,
	"€", `\euro{}`,
	"£", `\pounds{}`,
	"¥", `\yen{}`,
	"¢", `\cent{}`,
	"©", `\copyright{}`,
	"®", `\textregistered{}`,
	"™", `\texttrademark{}`,
	"…", `\ldots{}`,
	"—", `---`,
	"–", `--`,
	"†", `\dagger{}`,
	"‡", `\ddagger{}`,
	"¶", `\P{}`,
	"§", `\S{}`,
	"•", `\textbullet{}`,
	"✓", `\checkmark{}`,
	"→", `$\rightarrow$`,
	"←", `$\leftarrow$`,
	"↑", `$\uparrow$`,
	"↓", `$\downarrow$`,
	"↔", `$\leftrightarrow$`,
	"⇒", `$\Rightarrow$`,
	"⇐", `$\Leftarrow$`,
	"⇔", `$\Leftrightarrow$`,
	"∀", `$\forall$`,
	"∃", `$\exists$`,
	"∅", `$\emptyset$`,
	"∈", `$\in$`,
	"∉", `$\notin$`,
	"⊂", `$\subset$`,
	"⊃", `$\supset$`,
	"⊆", `$\subseteq$`,
	"⊇", `$\supseteq$`,
	"∩", `$\cap$`,
	"∪", `$\cup$`,
	"∆", `$\Delta$`,
	"∇", `$\nabla$`,
	"∂", `$\partial$`,
	"ℕ", `$\mathbb{N}$`,
	"ℤ", `$\mathbb{Z}$`,
	"ℚ", `$\mathbb{Q}$`,
	"ℝ", `$\mathbb{R}$`,
	"ℂ", `$\mathbb{C}$`,
	"°", `$^{\circ}$`,
	"‰", `\perthousand{}`,
	"‽", `\textinterrobang{}`,
	"“", "``",
	"”", "''",
	"‘", "`",
	"’", "'",
)

// EscapeLaTeX makes plain text safe for LaTeX and maps common Unicode
// symbols to their LaTeX commands.
func EscapeLaTeX(s string) string {
	return latexReplacer.Replace(s)
}

var typstReplacer = strings.NewReplacer(
	`\`, `\\`,
	`#`, `\#`,
	`$`, `\$`,
	`*`, `\*`,
	`/`, `\/`,
	`_`, `\_`,
	`<`, `\<`,
	`>`, `\>`,
	`@`, `\@`,
	`[`, `\[`,
	`]`, `\]`,
	"`", "\\`",
	`~`, `\~`,
)

// EscapeTypst escapes markup characters in plain text.
func EscapeTypst(s string) string {
	return typstReplacer.Replace(s)
}
