package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/zpam/sms-filter/pkg/apperr"
)

// DefaultPath is the dataset location used when none is configured.
const DefaultPath = "sms_spam_no_header.csv"

// Label is the class of a message.
type Label string

const (
	Ham  Label = "ham"
	Spam Label = "spam"
)

// Labels lists the classes in their fixed lexicographic order.
var Labels = []Label{Ham, Spam}

// Index returns the position of l in Labels, or -1.
func (l Label) Index() int {
	switch l {
	case Ham:
		return 0
	case Spam:
		return 1
	}
	return -1
}

// ParseLabel accepts "spam"/"ham" in any case with surrounding whitespace.
func ParseLabel(s string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case Ham:
		return Ham, true
	case Spam:
		return Spam, true
	}
	return "", false
}

// Example is one labeled message.
type Example struct {
	Text  string
	Label Label
}

// Dataset is an ordered collection of labeled messages.
type Dataset struct {
	Examples []Example
}

// Counts holds the number of examples per class.
type Counts struct {
	Ham  int
	Spam int
}

// Total returns the number of examples.
func (c Counts) Total() int {
	return c.Ham + c.Spam
}

// Of returns the count for l.
func (c Counts) Of(l Label) int {
	if l == Spam {
		return c.Spam
	}
	return c.Ham
}

// CountLabels counts the examples of each class.
func CountLabels(examples []Example) Counts {
	return Counts{
		Ham:  lo.CountBy(examples, func(ex Example) bool { return ex.Label == Ham }),
		Spam: lo.CountBy(examples, func(ex Example) bool { return ex.Label == Spam }),
	}
}

// Counts returns per-class counts of the dataset.
func (d *Dataset) Counts() Counts {
	return CountLabels(d.Examples)
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Examples)
}

// Texts returns the message texts in dataset order.
func Texts(examples []Example) []string {
	return lo.Map(examples, func(ex Example, _ int) string { return ex.Text })
}

// LabelsOf returns the labels in dataset order.
func LabelsOf(examples []Example) []Label {
	return lo.Map(examples, func(ex Example, _ int) Label { return ex.Label })
}

// Load reads a headerless label,text CSV file.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(apperr.ErrDatasetNotFound, "dataset file '%s' not found", path)
		}
		return nil, errors.Wrapf(err, "failed to open dataset '%s'", path)
	}
	defer file.Close()

	ds, err := Read(file)
	if err != nil {
		return nil, errors.WithMessagef(err, "dataset '%s'", path)
	}
	return ds, nil
}

// Read parses label,text rows from r.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var examples []Example
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(apperr.ErrDatasetMalformed, "%v", err)
		}

		line, _ := reader.FieldPos(0)
		label, ok := ParseLabel(record[0])
		if !ok {
			return nil, errors.Wrapf(apperr.ErrDatasetMalformed, "line %d: unknown label %q", line, record[0])
		}

		text := strings.TrimSpace(record[1])
		if text == "" {
			return nil, errors.Wrapf(apperr.ErrDatasetMalformed, "line %d: empty message", line)
		}

		examples = append(examples, Example{Text: text, Label: label})
	}

	if len(examples) == 0 {
		return nil, errors.Wrap(apperr.ErrDatasetMalformed, "dataset is empty")
	}

	return &Dataset{Examples: examples}, nil
}

// LoadForDisplay loads the dataset for read-only display. Any failure yields
// nil so callers can simply hide the overview.
func LoadForDisplay(path string) []Example {
	ds, err := Load(path)
	if err != nil {
		return nil
	}
	return ds.Examples
}
