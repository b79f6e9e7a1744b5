package latex

// NormalizationMap 单个Unicode字符到ASCII LaTeX命令的映射
// 键互不重叠，替换顺序无关。
var NormalizationMap = map[rune]string{
	// 希腊字母（小写）
	'α': `\alpha`,
	'β': `\beta`,
	'γ': `\gamma`,
	'δ': `\delta`,
	'ε': `\varepsilon`,
	'ϵ': `\epsilon`,
	'ζ': `\zeta`,
	'η': `\eta`,
	'θ': `\theta`,
	'ϑ': `\vartheta`,
	'ι': `\iota`,
	'κ': `\kappa`,
	'λ': `\lambda`,
	'μ': `\mu`,
	'µ': `\mu`,
	'ν': `\nu`,
	'ξ': `\xi`,
	'ο': `o`,
	'π': `\pi`,
	'ϖ': `\varpi`,
	'ρ': `\rho`,
	'ϱ': `\varrho`,
	'σ': `\sigma`,
	'ς': `\varsigma`,
	'τ': `\tau`,
	'υ': `\upsilon`,
	'φ': `\varphi`,
	'ϕ': `\phi`,
	'χ': `\chi`,
	'ψ': `\psi`,
	'ω': `\omega`,

	// 希腊字母（大写），与拉丁字母同形的直接映射为字母
	'Α':      `A`,
	'Β':      `B`,
	'Γ':      `\Gamma`,
	'Δ':      `\Delta`,
	'Ε':      `E`,
	'Ζ':      `Z`,
	'Η':      `H`,
	'Θ':      `\Theta`,
	'Ι':      `I`,
	'Κ':      `K`,
	'Λ':      `\Lambda`,
	'Μ':      `M`,
	'Ν':      `N`,
	'Ξ':      `\Xi`,
	'Ο':      `O`,
	'Π':      `\Pi`,
	'Ρ':      `P`,
	'Σ':      `\Sigma`,
	'Τ':      `T`,
	'Υ':      `\Upsilon`,
	'Φ':      `\Phi`,
	'Χ':      `X`,
	'Ψ':      `\Psi`,
	'Ω':      `\Omega`,
	'\u2126': `\Omega`, // 欧姆符号

	// 关系符号
	'≤': `\leq`,
	'≥': `\geq`,
	'⩽': `\leqslant`,
	'⩾': `\geqslant`,
	'≠': `\neq`,
	'≈': `\approx`,
	'≡': `\equiv`,
	'≢': `\not\equiv`,
	'≅': `\cong`,
	'≃': `\simeq`,
	'∼': `\sim`,
	'∝': `\propto`,
	'≪': `\ll`,
	'≫': `\gg`,
	'≺': `\prec`,
	'≻': `\succ`,
	'⊥': `\perp`,
	'∥': `\parallel`,
	'∣': `\mid`,
	'∤': `\nmid`,
	'≔': `\coloneqq`,
	'≜': `\triangleq`,

	// 集合
	'∈': `\in`,
	'∉': `\notin`,
	'∋': `\ni`,
	'⊂': `\subset`,
	'⊃': `\supset`,
	'⊆': `\subseteq`,
	'⊇': `\supseteq`,
	'⊄': `\not\subset`,
	'⊈': `\nsubseteq`,
	'⊊': `\subsetneq`,
	'∪': `\cup`,
	'∩': `\cap`,
	'∅': `\emptyset`,
	'∖': `\setminus`,
	'℘': `\wp`,
	'ℕ': `\mathbb{N}`,
	'ℤ': `\mathbb{Z}`,
	'ℚ': `\mathbb{Q}`,
	'ℝ': `\mathbb{R}`,
	'ℂ': `\mathbb{C}`,

	// 逻辑
	'∀': `\forall`,
	'∃': `\exists`,
	'∄': `\nexists`,
	'¬': `\neg`,
	'∧': `\land`,
	'∨': `\lor`,
	'⊕': `\oplus`,
	'⊗': `\otimes`,
	'⊢': `\vdash`,
	'⊨': `\models`,
	'⊤': `\top`,
	'∴': `\therefore`,
	'∵': `\because`,

	// 箭头
	'→': `\to`,
	'←': `\leftarrow`,
	'↔': `\leftrightarrow`,
	'↑': `\uparrow`,
	'↓': `\downarrow`,
	'⇒': `\Rightarrow`,
	'⇐': `\Leftarrow`,
	'⇔': `\Leftrightarrow`,
	'⟹': `\implies`,
	'⟸': `\impliedby`,
	'⟺': `\iff`,
	'↦': `\mapsto`,
	'⟶': `\longrightarrow`,
	'⟵': `\longleftarrow`,
	'↪': `\hookrightarrow`,
	'⇀': `\rightharpoonup`,

	// 运算符
	'±': `\pm`,
	'∓': `\mp`,
	'×': `\times`,
	'÷': `\div`,
	'·': `\cdot`,
	'⋅': `\cdot`,
	'∘': `\circ`,
	'∗': `\ast`,
	'−': `-`,
	'√': `\sqrt`,
	'∑': `\sum`,
	'∏': `\prod`,
	'∐': `\coprod`,
	'∫': `\int`,
	'∬': `\iint`,
	'∭': `\iiint`,
	'∮': `\oint`,
	'∂': `\partial`,
	'∇': `\nabla`,
	'∆': `\Delta`,

	// 其他
	'∞':      `\infty`,
	'ℓ':      `\ell`,
	'ℏ':      `\hbar`,
	'ℵ':      `\aleph`,
	'ℑ':      `\Im`,
	'ℜ':      `\Re`,
	'°':      `^\circ`,
	'′':      `'`,
	'″':      `''`,
	'…':      `\ldots`,
	'⋯':      `\cdots`,
	'⋮':      `\vdots`,
	'⋱':      `\ddots`,
	'∠':      `\angle`,
	'△':      `\triangle`,
	'□':      `\square`,
	'⟨':      `\langle`,
	'⟩':      `\rangle`,
	'⌈':      `\lceil`,
	'⌉':      `\rceil`,
	'⌊':      `\lfloor`,
	'⌋':      `\rfloor`,
	'‖':      `\|`,
	'\u00a0': ` `,
	'\u2009': ` `,
	'‘':      "`",
	'’':      `'`,
	'“':      "``",
	'”':      `''`,
	'–':      `--`,
	'—':      `---`,
}

// commaVariants 需要统一为ASCII逗号的标点
var commaVariants = map[rune]bool{
	'，': true, // 全角逗号
	'‚': true, // 低位单引号形逗号
	'،': true, // 阿拉伯逗号
	'、': true, // 顿号
	'﹐': true, // 小型逗号
	'︐': true, // 竖排逗号
}
