package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextDropsMarkupAndDecodesEntities(t *testing.T) {
	got := Text(`<b>Wants</b> the &quot;Prime&quot; plan<script>alert(1)</script>`)
	assert.Equal(t, `Wants the "Prime" plan`, got)
}

func TestTextKeepsLineBreaks(t *testing.T) {
	got := Text("Call back\r\n\r\n\r\n  after   5pm  \nprefers WhatsApp")
	assert.Equal(t, "Call back\n\nafter 5pm\nprefers WhatsApp", got)
}

func TestTextTurnsBreakTagsIntoNewlines(t *testing.T) {
	assert.Equal(t, "one\ntwo", Text("one<br/>two"))
}

func TestTextEncodedTagIsNotMarkup(t *testing.T) {
	assert.Equal(t, "<i>x</i>", Text("&lt;i&gt;x&lt;/i&gt;"))
}

func TestName(t *testing.T) {
	assert.Equal(t, "Jane Roe", Name("  Jane\n  <em>Roe</em> "))
}

func TestTextPtr(t *testing.T) {
	assert.Nil(t, TextPtr(nil))
	s := " <p>hi</p> "
	assert.Equal(t, "hi", *TextPtr(&s))
}
