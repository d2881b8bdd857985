// Package check runs small suites of integer assertions and reports every
// outcome, not just the first failure.
package check

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Kind is the comparison an assertion performs.
type Kind string

const (
	KindEqual    Kind = "eq"
	KindNotEqual Kind = "ne"
)

// Assertion compares two integers.
type Assertion struct {
	Kind     Kind `json:"kind"`
	Expected int  `json:"expected"`
	Actual   int  `json:"actual"`
}

// Equal asserts that actual equals expected.
func Equal(expected, actual int) Assertion {
	return Assertion{Kind: KindEqual, Expected: expected, Actual: actual}
}

// NotEqual asserts that actual differs from expected.
func NotEqual(expected, actual int) Assertion {
	return Assertion{Kind: KindNotEqual, Expected: expected, Actual: actual}
}

// Holds reports whether the assertion passes. Unknown kinds never hold.
func (a Assertion) Holds() bool {
	switch a.Kind {
	case KindEqual:
		return a.Expected == a.Actual
	case KindNotEqual:
		return a.Expected != a.Actual
	default:
		return false
	}
}

func (a Assertion) String() string {
	switch a.Kind {
	case KindEqual:
		return fmt.Sprintf("EXPECT_EQ(%d, %d)", a.Expected, a.Actual)
	case KindNotEqual:
		return fmt.Sprintf("EXPECT_NE(%d, %d)", a.Expected, a.Actual)
	default:
		return fmt.Sprintf("%s(%d, %d)", a.Kind, a.Expected, a.Actual)
	}
}

// Case is a named group of assertions.
type Case struct {
	Name       string
	Assertions []Assertion
}

// Suite holds cases in registration order.
type Suite struct {
	cases []Case
}

// Register adds a case to the suite.
func (s *Suite) Register(name string, assertions ...Assertion) {
	s.cases = append(s.cases, Case{Name: name, Assertions: assertions})
}

// Cases returns the registered cases.
func (s *Suite) Cases() []Case {
	return s.cases
}

// AssertionResult is one evaluated assertion.
type AssertionResult struct {
	Assertion
	Passed bool `json:"passed"`
}

// CaseResult is one evaluated case.
type CaseResult struct {
	Name       string            `json:"name"`
	Passed     bool              `json:"passed"`
	Assertions []AssertionResult `json:"assertions"`
}

// Report collects every case result of a suite run.
type Report struct {
	Cases []CaseResult `json:"cases"`
}

// Passed reports whether every case passed.
func (r Report) Passed() bool {
	for _, c := range r.Cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failed counts the failing cases.
func (r Report) Failed() int {
	n := 0
	for _, c := range r.Cases {
		if !c.Passed {
			n++
		}
	}
	return n
}

// ExitCode is 0 when every case passed and 1 otherwise.
func (r Report) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}

// Run evaluates every assertion of every case. A failing assertion does not
// stop the ones after it. Progress is written to w.
func (s *Suite) Run(w io.Writer) Report {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed, color.Bold)

	var report Report
	fmt.Fprintf(w, "[==========] Running %d test case(s).\n", len(s.cases))

	for _, c := range s.cases {
		fmt.Fprintf(w, "[ RUN      ] %s\n", c.Name)
		cr := CaseResult{Name: c.Name, Passed: true}

		for _, a := range c.Assertions {
			ok := a.Holds()
			cr.Assertions = append(cr.Assertions, AssertionResult{Assertion: a, Passed: ok})
			if ok {
				pass.Fprintf(w, "[   PASS   ]")
			} else {
				cr.Passed = false
				fail.Fprintf(w, "[   FAIL   ]")
			}
			fmt.Fprintf(w, " %s\n", a)
		}

		if cr.Passed {
			pass.Fprintf(w, "[       OK ]")
		} else {
			fail.Fprintf(w, "[  FAILED  ]")
		}
		fmt.Fprintf(w, " %s\n", c.Name)
		report.Cases = append(report.Cases, cr)
	}

	fmt.Fprintf(w, "[==========] %d test case(s) ran.\n", len(report.Cases))
	if report.Passed() {
		pass.Fprintf(w, "[  PASSED  ]")
		fmt.Fprintf(w, " %d test case(s).\n", len(report.Cases))
	} else {
		fail.Fprintf(w, "[  FAILED  ]")
		fmt.Fprintf(w, " %d of %d test case(s).\n", report.Failed(), len(report.Cases))
	}
	return report
}

// DefaultSuite is the hello project's test suite.
func DefaultSuite() *Suite {
	s := &Suite{}
	s.Register("HelloTest.BasicAssertions",
		Equal(42, 7*6),
		NotEqual(4, 5),
	)
	return s
}
