package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Students List",
		Headers: []string{"Name", "Email", "Registered Events"},
		Rows: [][]string{
			{"Asha Patil", "asha@college.edu", "2"},
			{"Rohan, Jr.", "rohan@college.edu"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	expected := "Name,Email,Registered Events\nAsha Patil,asha@college.edu,2\n\"Rohan, Jr.\",rohan@college.edu,\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRejectsWideRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Headers: []string{"Name"}, Rows: [][]string{{"a", "b"}}})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter("Campus Events").Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter("").Render(Dataset{})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
