package ir

// opNames holds the lowercase mnemonic for each Op, in exactly the order
// Op's own constants are declared, mirroring the mnemonic table a textual
// backend (original_source's lyricalbackendtext.c) emits for each opcode.
var opNames = [...]string{
	"add", "addi", "sub", "neg", "mul", "mulh", "div", "mod", "mulhu",
	"divu", "modu", "muli", "mulhi", "divi", "modi", "divi2", "modi2",
	"mulhui", "divui", "modui", "divui2", "modui2",

	"and", "andi", "or", "ori", "xor", "xori", "not", "cpy",
	"sll", "slli", "slli2", "srl", "srli", "srli2", "sra", "srai", "srai2",
	"zxt", "sxt",

	"seq", "sne", "seqi", "snei",
	"slt", "slte", "sltu", "slteu", "slti", "sltei", "sltui", "slteui",
	"sgti", "sgtei", "sgtui", "sgteui", "sz", "snz",

	"jeq", "jeqi", "jeqr", "jne", "jnei", "jner",
	"jlt", "jlti", "jltr", "jlte", "jltei", "jlter",
	"jltu", "jltui", "jltur", "jlteu", "jlteui", "jlteur",
	"jz", "jzi", "jzr", "jnz", "jnzi", "jnzr",
	"j", "ji", "jr", "jl", "jli", "jlr",
	"jpush", "jpushi", "jpushr", "jpop",

	"afip",

	"li",

	"ld8", "ld8r", "ld8i", "ld16", "ld16r", "ld16i",
	"ld32", "ld32r", "ld32i", "ld64", "ld64r", "ld64i",

	"st8", "st8r", "st8i", "st16", "st16r", "st16i",
	"st32", "st32r", "st32i", "st64", "st64r", "st64i",

	"ldst8", "ldst8r", "ldst8i", "ldst16", "ldst16r", "ldst16i",
	"ldst32", "ldst32r", "ldst32i", "ldst64", "ldst64r", "ldst64i",

	"mem8cpy", "mem8cpyi", "mem8cpy2", "mem8cpyi2",
	"mem16cpy", "mem16cpyi", "mem16cpy2", "mem16cpyi2",
	"mem32cpy", "mem32cpyi", "mem32cpy2", "mem32cpyi2",
	"mem64cpy", "mem64cpyi", "mem64cpy2", "mem64cpyi2",

	"pagealloc", "pagealloci", "pagefree", "pagefreei",

	"stackpagealloc", "stackpagefree",

	"machinecode",

	"nop",

	"comment",
}

// String returns op's mnemonic, matching the name a textual backend would
// print. Returns "?" for a value outside the declared range.
func (op Op) String() string {
	if int(op) < 0 || int(op) >= len(opNames) {
		return "?"
	}
	return opNames[op]
}
