package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Go Workshop", Text("<b>Go</b> Workshop"))
	assert.Equal(t, "Hall A", Text(`  <script>alert(1)</script>Hall A `))
	assert.Equal(t, "Health & Wellness", Text("Health & Wellness"))
	assert.Equal(t, "", Text(""))
}

func TestHTML(t *testing.T) {
	out := HTML(`<p onclick="x()">Bring a <strong>laptop</strong></p><script>alert(1)</script>`)
	assert.Contains(t, out, "<strong>laptop</strong>")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
}
