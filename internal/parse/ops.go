package parse

type opType int

const (
	xfx opType = iota
	xfy
	yfx
	fy
	fx
)

type opDef struct {
	prec int
	typ  opType
}

// Standard operator table. Module-specific op/3 declarations are not
// honored.
var infixOps = map[string]opDef{
	":-":    {1200, xfx},
	"-->":   {1200, xfx},
	"=>":    {1200, xfx},
	";":     {1100, xfy},
	"|":     {1100, xfy},
	"->":    {1050, xfy},
	"*->":   {1050, xfy},
	",":     {1000, xfy},
	":=":    {990, xfx},
	"=":     {700, xfx},
	"\\=":   {700, xfx},
	"==":    {700, xfx},
	"\\==":  {700, xfx},
	"@<":    {700, xfx},
	"@>":    {700, xfx},
	"@=<":   {700, xfx},
	"@>=":   {700, xfx},
	"=..":   {700, xfx},
	"is":    {700, xfx},
	"=:=":   {700, xfx},
	"=\\=":  {700, xfx},
	"<":     {700, xfx},
	">":     {700, xfx},
	"=<":    {700, xfx},
	">=":    {700, xfx},
	"=@=":   {700, xfx},
	"\\=@=": {700, xfx},
	">:<":   {700, xfx},
	":<":    {700, xfx},
	"as":    {700, xfx},
	":":     {600, xfy},
	"+":     {500, yfx},
	"-":     {500, yfx},
	"/\\":   {500, yfx},
	"\\/":   {500, yfx},
	"xor":   {500, yfx},
	"*":     {400, yfx},
	"/":     {400, yfx},
	"//":    {400, yfx},
	"rem":   {400, yfx},
	"mod":   {400, yfx},
	"div":   {400, yfx},
	"rdiv":  {400, yfx},
	"<<":    {400, yfx},
	">>":    {400, yfx},
	"**":    {200, xfx},
	"^":     {200, xfy},
}

var prefixOps = map[string]opDef{
	":-":                 {1200, fx},
	"?-":                 {1200, fx},
	"dynamic":            {1150, fx},
	"discontiguous":      {1150, fx},
	"initialization":     {1150, fx},
	"meta_predicate":     {1150, fx},
	"module_transparent": {1150, fx},
	"multifile":          {1150, fx},
	"public":             {1150, fx},
	"thread_local":       {1150, fx},
	"table":              {1150, fx},
	"\\+":                {900, fy},
	"?":                  {500, fx},
	"-":                  {200, fy},
	"+":                  {200, fy},
	"\\":                 {200, fy},
	"$":                  {1, fx},
}

// argMax returns the maximum precedence of the left and right operands.
func (d opDef) argMax() (left, right int) {
	switch d.typ {
	case xfx:
		return d.prec - 1, d.prec - 1
	case xfy:
		return d.prec - 1, d.prec
	case yfx:
		return d.prec, d.prec - 1
	case fy:
		return 0, d.prec
	default:
		return 0, d.prec - 1
	}
}
