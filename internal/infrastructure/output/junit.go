package output

import (
	"encoding/xml"
	"io"

	"github.com/dblab-dev/dblab/internal/application/dto"
)

// JUnitFormatter formats a validation report as JUnit XML, one test case
// per rule.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{writer: w}
}

// JUnitTestSuites is the document root.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Time       float64          `xml:"time,attr"`
}

// JUnitTestSuite groups the rules of one instance.
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Time      float64         `xml:"time,attr"`
}

// JUnitTestCase is one rule.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
}

// JUnitFailure carries a rule violation.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

// Format writes the report as JUnit XML.
func (f *JUnitFormatter) Format(report *dto.ValidationReport) error {
	name := report.Engine
	if report.Instance != "" {
		name += "/" + report.Instance
	}

	suite := JUnitTestSuite{
		Name:     name,
		Tests:    len(report.Results),
		Failures: report.Failed(),
		Time:     report.Duration.Seconds(),
	}
	for _, res := range report.Results {
		c := JUnitTestCase{Name: res.Rule, ClassName: "dblab." + report.Verb}
		if !res.Passed {
			c.Failure = &JUnitFailure{Message: res.Message, Content: res.Message}
		}
		suite.TestCases = append(suite.TestCases, c)
	}

	suites := JUnitTestSuites{
		Name:       "dblab validate",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       suite.Time,
		TestSuites: []JUnitTestSuite{suite},
	}

	if _, err := io.WriteString(f.writer, xml.Header); err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err := io.WriteString(f.writer, "\n")
	return err
}
