package parser

// Command is one action written in the plain text action language, e.g.
//
//	vote p3
//	vote by: p1 to: p3
//	pair p2 and p5
//	say "I trust p4"
type Command struct {
	Verb    string      `parser:"@Ident \":\"?"`
	Actor   *ActorExpr  `parser:"@@?"`
	Targets *TargetExpr `parser:"@@?"`
	Speech  *string     `parser:"@String?"`
	End     string      `parser:"@(\".\" | \"!\")?"`
}

// ActorExpr maps parsing the optional "by: Someone" block
type ActorExpr struct {
	Keyword string `parser:"\"by\" \":\""`
	Name    string `parser:"@(Ident|Int)"`
}

// TargetExpr is the optional "to:" keyword followed by one or more players joined by "and" or commas.
type TargetExpr struct {
	Keyword string   `parser:"( \"to\" \":\" )?"`
	Names   []string `parser:"@(Ident|Int) ( ( \"and\" | \",\" ) \":\"? @(Ident|Int) )*"`
}
