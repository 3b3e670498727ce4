package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestPositionToOffset(t *testing.T) {
	content := "<a>\n<b attr=\"v\"/>\n</a>"

	assert.Equal(t, 0, positionToOffset(content, protocol.Position{Line: 0, Character: 0}))
	assert.Equal(t, 3, positionToOffset(content, protocol.Position{Line: 0, Character: 3}))
	assert.Equal(t, 4, positionToOffset(content, protocol.Position{Line: 1, Character: 0}))
	assert.Equal(t, 7, positionToOffset(content, protocol.Position{Line: 1, Character: 3}))

	// Past end of line clamps to the line break.
	assert.Equal(t, 3, positionToOffset(content, protocol.Position{Line: 0, Character: 99}))
	// Past end of document clamps to the end.
	assert.Equal(t, len(content), positionToOffset(content, protocol.Position{Line: 9, Character: 0}))
}

func TestPositionToOffsetUTF16(t *testing.T) {
	// é is 1 UTF-16 unit but 2 bytes; 😀 is 2 UTF-16 units and 4 bytes.
	content := `<café name="😀x`

	// Character count is UTF-16 units; the é costs 1 unit, 2 bytes.
	assert.Equal(t, len("<café"), positionToOffset(content, protocol.Position{Line: 0, Character: 5}))
	// Units after the emoji: "<café name=\"" is 12 units, emoji is 2 more.
	assert.Equal(t, len(`<café name="😀`), positionToOffset(content, protocol.Position{Line: 0, Character: 14}))
	assert.Equal(t, len(content), positionToOffset(content, protocol.Position{Line: 0, Character: 15}))
}
