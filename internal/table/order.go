package table

// Lock ordering is a hard correctness property of this package: any code
// path that needs more than one of these locks MUST acquire them in this
// order, and may acquire any subset of the chain as long as it keeps
// this order (e.g. Run then Term, Main then Term, or just Boot, but
// never Term then Run).
//
//	Main < Run < Term < Boot
//
// The control loop's three phases are structured to respect this:
// Phase R takes Main, then Run; Phase T takes Main, then Run, then
// Term; Phase M takes Main, then Term.
const (
	orderMain = iota
	orderRun
	orderTerm
	orderBoot
)

// lockOrder names the position of each table's lock in the chain above,
// purely for the debuglock assertion helper in assert_debuglock.go.
var lockOrder = map[string]int{
	"main": orderMain,
	"run":  orderRun,
	"term": orderTerm,
	"boot": orderBoot,
}
